package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/usecase"
)

type ExpiryWorker struct {
	expiry usecase.ExpiryUseCase
	loop   *loop
}

func NewExpiryWorker(interval time.Duration, expiry usecase.ExpiryUseCase, locker adapter.Locker, logger *zerolog.Logger) *ExpiryWorker {
	w := &ExpiryWorker{expiry: expiry}
	w.loop = newLoop("ExpiryWorker", interval, func(ctx context.Context) (int, error) {
		return w.expiry.SweepExpiring(ctx)
	}, locker, logger)
	return w
}

func (w *ExpiryWorker) Run(ctx context.Context) error { return w.loop.run(ctx) }
