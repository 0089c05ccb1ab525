package payment

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"telegram-video-access/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory gateway for tests and dev mode.
// A label counts as paid once MarkPaid was called for it, or on first check with autoConfirm.
type NoopPaymentGateway struct {
	mu          sync.Mutex
	paid        map[string]bool
	checks      map[string]int
	autoConfirm bool
}

func NewNoopPaymentGateway(autoConfirm bool) *NoopPaymentGateway {
	return &NoopPaymentGateway{
		paid:        make(map[string]bool),
		checks:      make(map[string]int),
		autoConfirm: autoConfirm,
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) Enabled() bool { return true }

func (g *NoopPaymentGateway) BuildPaymentURL(amount int64, label, targets string) string {
	return fmt.Sprintf("https://example.test/pay?sum=%d&label=%s", amount, url.QueryEscape(label))
}

func (g *NoopPaymentGateway) CheckPayment(ctx context.Context, label string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.checks[label]++
	return g.autoConfirm || g.paid[label]
}

func (g *NoopPaymentGateway) MarkPaid(label string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paid[label] = true
}

// Checks returns how many times label was looked up.
func (g *NoopPaymentGateway) Checks(label string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.checks[label]
}
