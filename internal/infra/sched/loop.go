package sched

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/infra/metrics"
	red "telegram-video-access/internal/infra/redis"
)

// sweepFunc performs one full pass and returns how many items it acted on.
type sweepFunc func(ctx context.Context) (int, error)

// loop runs a sweep once at start and then on every tick until ctx is cancelled.
// A failed or panicking pass is logged and retried on the next tick.
type loop struct {
	name     string
	interval time.Duration
	sweep    sweepFunc
	locker   adapter.Locker // optional
	log      *zerolog.Logger
}

func newLoop(name string, interval time.Duration, sweep sweepFunc, locker adapter.Locker, logger *zerolog.Logger) *loop {
	if interval <= 0 {
		interval = time.Minute
	}
	compLog := logger.With().Str("component", name).Logger()
	return &loop{name: name, interval: interval, sweep: sweep, locker: locker, log: &compLog}
}

func (l *loop) run(ctx context.Context) error {
	l.log.Info().Dur("interval", l.interval).Msg("starting")
	l.once(ctx)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.log.Info().Msg("stopping")
			return ctx.Err()
		case <-ticker.C:
			l.once(ctx)
		}
	}
}

func (l *loop) once(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()

	if l.locker != nil {
		key := red.SweepLockKey(l.name)
		token, err := l.locker.TryLock(ctx, key, l.interval)
		if errors.Is(err, domain.ErrLockHeld) {
			metrics.ObserveSweep(l.name, "skipped", time.Since(start).Seconds())
			l.log.Debug().Msg("sweep held by another instance")
			return
		}
		if err != nil {
			// Redis trouble must not stop reconciliation.
			l.log.Warn().Err(err).Msg("sweep lock unavailable, running unlocked")
		} else {
			defer func() {
				if err := l.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
					l.log.Warn().Err(err).Msg("release sweep lock")
				}
			}()
		}
	}

	n, err := l.safeSweep(ctx)
	result := "ok"
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		result = "cancelled"
	case err != nil:
		result = "error"
		l.log.Error().Err(err).Msg("sweep failed")
	case n > 0:
		l.log.Info().Int("count", n).Msg("sweep processed items")
	}
	metrics.ObserveSweep(l.name, result, time.Since(start).Seconds())
}

func (l *loop) safeSweep(ctx context.Context) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep panic: %v", r)
		}
	}()
	return l.sweep(ctx)
}
