package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/usecase"
)

// PaymentReconciler polls the gateway for every pending payment, oldest first,
// and fulfills the ones that were paid.
type PaymentReconciler struct {
	ledger usecase.LedgerUseCase
	loop   *loop
}

func NewPaymentReconciler(interval time.Duration, ledger usecase.LedgerUseCase, locker adapter.Locker, logger *zerolog.Logger) *PaymentReconciler {
	w := &PaymentReconciler{ledger: ledger}
	w.loop = newLoop("PaymentReconciler", interval, w.sweep, locker, logger)
	return w
}

func (w *PaymentReconciler) Run(ctx context.Context) error { return w.loop.run(ctx) }

func (w *PaymentReconciler) sweep(ctx context.Context) (int, error) {
	pending, err := w.ledger.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	confirmed := 0
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return confirmed, err
		}
		// Once started, an item runs to the end even if shutdown begins.
		owned, err := w.ledger.Reconcile(context.WithoutCancel(ctx), p)
		if err != nil {
			w.loop.log.Error().Err(err).Str("payment_id", p.ID).Msg("reconcile payment failed")
			continue
		}
		if owned {
			confirmed++
		}
	}
	return confirmed, nil
}
