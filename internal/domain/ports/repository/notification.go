package repository

import (
	"context"
	"time"
)

// -----------------------------
// Expiry notification watermarks
// -----------------------------

type NotificationWatermarkRepository interface {
	// Get returns the last access_until value a warning was sent for, or domain.ErrNotFound.
	Get(ctx context.Context, tx Tx, userID int64) (time.Time, error)
	Set(ctx context.Context, tx Tx, userID int64, notifiedUntil time.Time) error
}
