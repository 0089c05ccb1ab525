// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/domain/ports/repository"
	"telegram-video-access/internal/infra/logging"
	"telegram-video-access/internal/infra/metrics"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// CheckResult is the outcome of a manual payment check.
type CheckResult int

const (
	CheckNotPaid CheckResult = iota
	CheckConfirmed
	CheckAlreadyProcessed
)

func (r CheckResult) String() string {
	switch r {
	case CheckConfirmed:
		return "confirmed"
	case CheckAlreadyProcessed:
		return "already_processed"
	default:
		return "not_paid"
	}
}

// LedgerUseCase owns payment records and the pending -> success transition.
type LedgerUseCase interface {
	// FindReusablePending returns the user's latest pending payment when it was created for
	// the same video set and duration, else domain.ErrNotFound.
	FindReusablePending(ctx context.Context, userID int64, videoIDs []int, durationDays int) (*model.Payment, error)
	Create(ctx context.Context, userID int64, label string, amount int64, videoIDs []int, durationDays int) (*model.Payment, error)
	// Finalize reports whether this call moved the payment from pending to success.
	Finalize(ctx context.Context, tx repository.Tx, paymentID string, paidAt time.Time) (bool, error)
	Get(ctx context.Context, paymentID string) (*model.Payment, error)
	ListPending(ctx context.Context) ([]*model.Payment, error)
	NewLabel(userID int64) string

	// Fulfill finalizes p and grants its access in one transaction.
	Fulfill(ctx context.Context, p *model.Payment) (bool, error)
	// Reconcile asks the gateway about p and fulfills it when paid. The owner of the
	// transition notifies the user.
	Reconcile(ctx context.Context, p *model.Payment) (bool, error)
	CheckPayment(ctx context.Context, userID int64, paymentID string) (CheckResult, *model.Payment, error)
	StartPurchase(ctx context.Context, userID int64, videoIDs []int, durationDays int) (*model.Payment, string, error)
}

type LedgerConfig struct {
	Description string // "targets" on the payment form
	CheckLimit  int
	CheckWindow time.Duration
	BatchSize   int
	Dev         bool // log payment labels in clear
}

type ledgerUC struct {
	payments  repository.PaymentRepository
	users     repository.UserRepository
	videos    repository.VideoRepository
	access    AccessUseCase
	tm        repository.TransactionManager
	gateway   adapter.PaymentGateway
	transport adapter.ChatTransport
	limiter   adapter.RateLimiter // optional
	cfg       LedgerConfig
	now       func() time.Time
	log       *zerolog.Logger
}

func NewLedgerUseCase(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	videos repository.VideoRepository,
	access AccessUseCase,
	tm repository.TransactionManager,
	gateway adapter.PaymentGateway,
	transport adapter.ChatTransport,
	limiter adapter.RateLimiter,
	cfg LedgerConfig,
	logger *zerolog.Logger,
) *ledgerUC {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &ledgerUC{
		payments:  payments,
		users:     users,
		videos:    videos,
		access:    access,
		tm:        tm,
		gateway:   gateway,
		transport: transport,
		limiter:   limiter,
		cfg:       cfg,
		now:       time.Now,
		log:       logger,
	}
}

func (l *ledgerUC) FindReusablePending(ctx context.Context, userID int64, videoIDs []int, durationDays int) (*model.Payment, error) {
	p, err := l.payments.FindLatestPendingByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if !p.Matches(videoIDs, durationDays) {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (l *ledgerUC) Create(ctx context.Context, userID int64, label string, amount int64, videoIDs []int, durationDays int) (*model.Payment, error) {
	p, err := model.NewPayment(uuid.NewString(), userID, label, amount, videoIDs, durationDays, l.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := l.payments.Save(ctx, repository.NoTX, p); err != nil {
		if errors.Is(err, domain.ErrLabelConflict) {
			l.log.Error().Str("label", logging.Redact(label, l.cfg.Dev)).Int64("user_id", userID).Msg("payment label collision")
		}
		return nil, err
	}
	metrics.IncPayment("created")
	return p, nil
}

func (l *ledgerUC) Finalize(ctx context.Context, tx repository.Tx, paymentID string, paidAt time.Time) (bool, error) {
	return l.payments.MarkSuccess(ctx, tx, paymentID, paidAt)
}

func (l *ledgerUC) Get(ctx context.Context, paymentID string) (*model.Payment, error) {
	return l.payments.FindByID(ctx, repository.NoTX, paymentID)
}

// ListPending walks every pending payment page by page, so old abandoned checkouts
// never hide newer ones.
func (l *ledgerUC) ListPending(ctx context.Context) ([]*model.Payment, error) {
	var (
		out   []*model.Payment
		after *repository.PendingCursor
	)
	for {
		page, err := l.payments.ListPending(ctx, repository.NoTX, after, l.cfg.BatchSize)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < l.cfg.BatchSize {
			return out, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		after = repository.CursorAfter(page[len(page)-1])
	}
}

// NewLabel returns "<userID>-<8 random chars>" using the entropy half of a ULID.
func (l *ledgerUC) NewLabel(userID int64) string {
	id := ulid.Make().String()
	return fmt.Sprintf("%d-%s", userID, strings.ToLower(id[len(id)-8:]))
}

func (l *ledgerUC) Fulfill(ctx context.Context, p *model.Payment) (bool, error) {
	defer logging.TraceDuration(l.log, "LedgerUC.Fulfill")()

	var owned bool
	err := l.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		ok, err := l.Finalize(ctx, tx, p.ID, l.now().UTC())
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := l.access.Grant(ctx, tx, p.UserID, p.VideoIDs, p.DurationDays); err != nil {
			return fmt.Errorf("grant access for payment %s: %w", p.ID, err)
		}
		owned = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if owned {
		metrics.IncPayment("confirmed")
		metrics.AddPaymentRevenue(p.Amount)
		l.log.Info().Str("payment_id", p.ID).Int64("user_id", p.UserID).Ints("videos", p.VideoIDs).Int("days", p.DurationDays).Msg("payment fulfilled")
	} else {
		metrics.IncPayment("already_processed")
	}
	return owned, nil
}

func (l *ledgerUC) Reconcile(ctx context.Context, p *model.Payment) (bool, error) {
	if !l.gateway.CheckPayment(ctx, p.Label) {
		return false, nil
	}
	owned, err := l.Fulfill(ctx, p)
	if err != nil || !owned {
		return false, err
	}
	l.notifyPaid(ctx, p)
	return true, nil
}

func (l *ledgerUC) notifyPaid(ctx context.Context, p *model.Payment) {
	text := fmt.Sprintf("Оплата получена. Доступ к %d урок(ам) продлён на %d дней.", len(p.VideoIDs), p.DurationDays)
	// Private chats share the id of the user.
	if _, err := l.transport.SendMessage(ctx, adapter.SendMessageParams{ChatID: p.UserID, Text: text}); err != nil {
		l.log.Warn().Err(err).Str("payment_id", p.ID).Int64("user_id", p.UserID).Msg("payment notification failed")
	}
}

func (l *ledgerUC) CheckPayment(ctx context.Context, userID int64, paymentID string) (CheckResult, *model.Payment, error) {
	if l.limiter != nil && l.cfg.CheckLimit > 0 {
		ok, err := l.limiter.Allow(ctx, adapter.RateLimitKey(userID, "pay_check"), l.cfg.CheckLimit, l.cfg.CheckWindow)
		if err != nil {
			l.log.Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			metrics.IncRateLimitTriggered("pay_check")
			return CheckNotPaid, nil, domain.ErrRateLimited
		}
	}

	p, err := l.Get(ctx, paymentID)
	if err != nil {
		return CheckNotPaid, nil, err
	}
	if p.UserID != userID {
		return CheckNotPaid, nil, domain.ErrNotFound
	}
	if !p.IsPending() {
		return CheckAlreadyProcessed, p, nil
	}
	if !l.gateway.Enabled() {
		return CheckNotPaid, p, domain.ErrPaymentsDisabled
	}
	if !l.gateway.CheckPayment(ctx, p.Label) {
		metrics.IncPayment("not_paid")
		return CheckNotPaid, p, nil
	}
	owned, err := l.Fulfill(ctx, p)
	if err != nil {
		return CheckNotPaid, p, err
	}
	if !owned {
		return CheckAlreadyProcessed, p, nil
	}
	return CheckConfirmed, p, nil
}

func (l *ledgerUC) StartPurchase(ctx context.Context, userID int64, videoIDs []int, durationDays int) (*model.Payment, string, error) {
	defer logging.TraceDuration(l.log, "LedgerUC.StartPurchase")()

	user, err := l.users.GetOrCreate(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, "", err
	}
	if user.IsPrivileged {
		return nil, "", domain.ErrPrivilegedUser
	}
	ids := model.NormalizeVideoIDs(videoIDs)
	if len(ids) == 0 || !model.ValidDuration(durationDays) {
		return nil, "", domain.ErrInvalidArgument
	}
	if err := l.ensureForSale(ctx, ids); err != nil {
		return nil, "", err
	}
	if !l.gateway.Enabled() {
		return nil, "", domain.ErrPaymentsDisabled
	}

	p, err := l.FindReusablePending(ctx, userID, ids, durationDays)
	switch {
	case err == nil:
		metrics.IncPayment("reused")
	case errors.Is(err, domain.ErrNotFound):
		p, err = l.Create(ctx, userID, l.NewLabel(userID), CalculateTotal(len(ids), durationDays), ids, durationDays)
		if err != nil {
			return nil, "", err
		}
	default:
		return nil, "", err
	}
	return p, l.gateway.BuildPaymentURL(p.Amount, p.Label, l.cfg.Description), nil
}

func (l *ledgerUC) ensureForSale(ctx context.Context, ids []int) error {
	videos, err := l.videos.ListForSale(ctx, repository.NoTX)
	if err != nil {
		return err
	}
	known := make(map[int]bool, len(videos))
	for _, v := range videos {
		known[v.ID] = true
	}
	for _, id := range ids {
		if !known[id] {
			return fmt.Errorf("video %d is not for sale: %w", id, domain.ErrInvalidArgument)
		}
	}
	return nil
}
