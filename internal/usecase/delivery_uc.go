package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/adapter"
	"telegram-video-access/internal/domain/ports/repository"
	"telegram-video-access/internal/infra/metrics"
)

// Compile-time check
var _ DeliveryUseCase = (*deliveryUC)(nil)

// DeliveryUseCase sends protected videos and keeps the durable list of messages to remove later.
type DeliveryUseCase interface {
	Schedule(ctx context.Context, userID, chatID int64, messageID int, deleteAfter time.Time) (*model.ScheduledDeletion, error)
	// Due returns records whose deadline passed, oldest deadline first.
	Due(ctx context.Context, asOf time.Time) ([]*model.ScheduledDeletion, error)
	Reap(ctx context.Context, recordID string) error
	ComputeDeleteAfter(accessUntil *time.Time, now time.Time) time.Time
	DeliverVideo(ctx context.Context, user *model.User, chatID int64, videoID int) (*model.ScheduledDeletion, error)
	// ReapDue removes every due message through the transport and drops its record regardless of outcome.
	ReapDue(ctx context.Context) (int, error)
}

type deliveryUC struct {
	deliveries repository.DeliveryRepository
	videos     repository.VideoRepository
	access     AccessUseCase
	transport  adapter.ChatTransport
	lifetime   time.Duration
	batchSize  int
	now        func() time.Time
	log        *zerolog.Logger
}

func NewDeliveryUseCase(
	deliveries repository.DeliveryRepository,
	videos repository.VideoRepository,
	access AccessUseCase,
	transport adapter.ChatTransport,
	lifetime time.Duration,
	batchSize int,
	logger *zerolog.Logger,
) *deliveryUC {
	if lifetime <= 0 {
		lifetime = model.MaxMessageLifetime
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &deliveryUC{
		deliveries: deliveries,
		videos:     videos,
		access:     access,
		transport:  transport,
		lifetime:   lifetime,
		batchSize:  batchSize,
		now:        time.Now,
		log:        logger,
	}
}

func (d *deliveryUC) Schedule(ctx context.Context, userID, chatID int64, messageID int, deleteAfter time.Time) (*model.ScheduledDeletion, error) {
	rec := &model.ScheduledDeletion{
		UserID:      userID,
		ChatID:      chatID,
		MessageID:   messageID,
		DeleteAfter: deleteAfter,
		CreatedAt:   d.now().UTC(),
	}
	if err := d.deliveries.Save(ctx, repository.NoTX, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (d *deliveryUC) Due(ctx context.Context, asOf time.Time) ([]*model.ScheduledDeletion, error) {
	return d.deliveries.ListDue(ctx, repository.NoTX, asOf, d.batchSize)
}

func (d *deliveryUC) Reap(ctx context.Context, recordID string) error {
	return d.deliveries.Delete(ctx, repository.NoTX, recordID)
}

func (d *deliveryUC) ComputeDeleteAfter(accessUntil *time.Time, now time.Time) time.Time {
	return model.DeleteAfter(accessUntil, now, d.lifetime)
}

func (d *deliveryUC) DeliverVideo(ctx context.Context, user *model.User, chatID int64, videoID int) (*model.ScheduledDeletion, error) {
	until, ok, err := d.access.CanAccess(ctx, user, videoID)
	if err != nil {
		return nil, err
	}
	if !ok {
		metrics.IncVideoDelivered("denied")
		return nil, domain.ErrAccessDenied
	}
	video, err := d.videos.FindByID(ctx, repository.NoTX, videoID)
	if err != nil {
		return nil, err
	}
	if !video.ForSale() {
		return nil, domain.ErrNoFileID
	}

	msgID, err := d.transport.SendVideo(ctx, chatID, video.FileID)
	if err != nil {
		metrics.IncVideoDelivered("failed")
		d.log.Warn().Err(err).Int64("user_id", user.ID).Int("video_id", videoID).Msg("video delivery failed")
		return nil, domain.ErrTransport
	}
	metrics.IncVideoDelivered("sent")

	now := d.now().UTC()
	return d.Schedule(ctx, user.ID, chatID, msgID, d.ComputeDeleteAfter(until, now))
}

func (d *deliveryUC) ReapDue(ctx context.Context) (int, error) {
	due, err := d.Due(ctx, d.now().UTC())
	if err != nil {
		return 0, err
	}
	reaped := 0
	for _, rec := range due {
		if err := ctx.Err(); err != nil {
			return reaped, err
		}
		if err := d.transport.DeleteMessage(ctx, rec.ChatID, rec.MessageID); err != nil {
			metrics.IncMessageReaped("failed")
			d.log.Warn().Err(err).Int64("chat_id", rec.ChatID).Int("message_id", rec.MessageID).Msg("delete message failed")
		} else {
			metrics.IncMessageReaped("deleted")
		}
		if err := d.Reap(ctx, rec.ID); err != nil {
			d.log.Error().Err(err).Str("record_id", rec.ID).Msg("reap record failed")
			continue
		}
		reaped++
	}
	return reaped, nil
}
