package repository

import (
	"context"
	"time"

	"telegram-video-access/internal/domain/model"
)

// -----------------------------
// Scheduled deletions of delivered videos
// -----------------------------

type DeliveryRepository interface {
	Save(ctx context.Context, tx Tx, d *model.ScheduledDeletion) error
	// ListDue returns records with delete_after <= asOf, oldest deadline first.
	ListDue(ctx context.Context, tx Tx, asOf time.Time, limit int) ([]*model.ScheduledDeletion, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
