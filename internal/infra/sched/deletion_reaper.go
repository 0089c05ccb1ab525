package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/usecase"
)

// DeletionReaper removes delivered videos whose deadline passed.
type DeletionReaper struct {
	delivery usecase.DeliveryUseCase
	loop     *loop
}

func NewDeletionReaper(interval time.Duration, delivery usecase.DeliveryUseCase, locker adapter.Locker, logger *zerolog.Logger) *DeletionReaper {
	w := &DeletionReaper{delivery: delivery}
	w.loop = newLoop("DeletionReaper", interval, func(ctx context.Context) (int, error) {
		return w.delivery.ReapDue(ctx)
	}, locker, logger)
	return w
}

func (w *DeletionReaper) Run(ctx context.Context) error { return w.loop.run(ctx) }
