package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/domain/ports/repository"
	"telegram-video-access/internal/infra/metrics"
)

// Compile-time check
var _ ExpiryUseCase = (*expiryUC)(nil)

// ExpiryUseCase warns users whose latest access window is about to close.
// One warning is sent per distinct expiry value; the watermark stores that value.
type ExpiryUseCase interface {
	// SweepExpiring checks every user with at least one grant and returns how many warnings went out.
	SweepExpiring(ctx context.Context) (int, error)
	// CheckUser runs one user through the notifier and reports whether a warning was sent.
	CheckUser(ctx context.Context, userID int64, maxUntil, now time.Time) (bool, error)
}

type expiryUC struct {
	access     repository.AccessRepository
	watermarks repository.NotificationWatermarkRepository
	transport  adapter.ChatTransport
	horizon    time.Duration
	now        func() time.Time
	log        *zerolog.Logger
}

func NewExpiryUseCase(
	access repository.AccessRepository,
	watermarks repository.NotificationWatermarkRepository,
	transport adapter.ChatTransport,
	notifyDays int,
	logger *zerolog.Logger,
) *expiryUC {
	if notifyDays <= 0 {
		notifyDays = 3
	}
	return &expiryUC{
		access:     access,
		watermarks: watermarks,
		transport:  transport,
		horizon:    time.Duration(notifyDays) * model.Day,
		now:        time.Now,
		log:        logger,
	}
}

func (e *expiryUC) SweepExpiring(ctx context.Context) (int, error) {
	users, err := e.access.ListUserMaxUntil(ctx, repository.NoTX)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ok, err := e.CheckUser(ctx, u.UserID, u.MaxUntil, e.now())
		if ok {
			sent++
		}
		if err != nil {
			e.log.Error().Err(err).Int64("user_id", u.UserID).Bool("sent", ok).Msg("expiry check failed")
		}
	}
	return sent, nil
}

func (e *expiryUC) CheckUser(ctx context.Context, userID int64, maxUntil, now time.Time) (bool, error) {
	if maxUntil.IsZero() || !maxUntil.After(now) || maxUntil.After(now.Add(e.horizon)) {
		return false, nil
	}

	last, err := e.watermarks.Get(ctx, repository.NoTX, userID)
	switch {
	case err == nil:
		if last.Equal(maxUntil) {
			return false, nil
		}
	case errors.Is(err, domain.ErrNotFound):
	default:
		return false, err
	}

	days := model.RemainingDays(maxUntil, now)
	text := fmt.Sprintf("Доступ к урокам закончится через %d дн. Продлите его, чтобы не потерять доступ.", days)
	if _, err := e.transport.SendMessage(ctx, adapter.SendMessageParams{ChatID: userID, Text: text}); err != nil {
		// The watermark stays put so the next sweep retries.
		metrics.IncExpiryNotification("failed")
		e.log.Warn().Err(err).Int64("user_id", userID).Msg("expiry notification failed")
		return false, nil
	}
	metrics.IncExpiryNotification("sent")

	// Delivery is at-least-once: an unrecorded warning is repeated by the next sweep.
	if err := e.watermarks.Set(ctx, repository.NoTX, userID, maxUntil); err != nil {
		return true, fmt.Errorf("record expiry warning: %w", err)
	}
	e.log.Info().Int64("user_id", userID).Int("days_left", days).Time("until", maxUntil).Msg("expiry warning sent")
	return true, nil
}
