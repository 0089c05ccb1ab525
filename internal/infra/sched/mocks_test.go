package sched

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/usecase"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

type mockLedger struct {
	usecase.LedgerUseCase // unimplemented methods panic

	ListPendingFunc func(ctx context.Context) ([]*model.Payment, error)
	ReconcileFunc   func(ctx context.Context, p *model.Payment) (bool, error)
}

func (m *mockLedger) ListPending(ctx context.Context) ([]*model.Payment, error) {
	return m.ListPendingFunc(ctx)
}

func (m *mockLedger) Reconcile(ctx context.Context, p *model.Payment) (bool, error) {
	return m.ReconcileFunc(ctx, p)
}

type mockDelivery struct {
	usecase.DeliveryUseCase

	ReapDueFunc func(ctx context.Context) (int, error)
}

func (m *mockDelivery) ReapDue(ctx context.Context) (int, error) { return m.ReapDueFunc(ctx) }

type mockExpiry struct {
	mu    sync.Mutex
	calls int
}

func (m *mockExpiry) SweepExpiring(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return 0, nil
}

func (m *mockExpiry) CheckUser(ctx context.Context, userID int64, maxUntil, now time.Time) (bool, error) {
	return false, nil
}

func (m *mockExpiry) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockLocker struct {
	mu       sync.Mutex
	held     bool
	unlocked int
}

func (l *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held {
		return "", domain.ErrLockHeld
	}
	return "token", nil
}

func (l *mockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocked++
	return nil
}
