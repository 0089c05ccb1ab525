package repository

import (
	"context"
	"time"

	"telegram-video-access/internal/domain/model"
)

// -----------------------------
// Access grants
// -----------------------------

type AccessRepository interface {
	// FindUntil returns access_until for (user, video) or domain.ErrNotFound.
	FindUntil(ctx context.Context, tx Tx, userID int64, videoID int) (time.Time, error)
	// Extend sets access_until = max(now, current) + days*86400s for one pair in a single
	// statement and returns the new value. A missing row counts as expired.
	Extend(ctx context.Context, tx Tx, userID int64, videoID int, now time.Time, days int) (time.Time, error)
	ListActive(ctx context.Context, tx Tx, userID int64, asOf time.Time) ([]*model.AccessGrant, error)
	// MaxUntil returns the latest access_until of the user or domain.ErrNotFound.
	MaxUntil(ctx context.Context, tx Tx, userID int64) (time.Time, error)
	// ListUserMaxUntil returns one row per user that has at least one grant.
	ListUserMaxUntil(ctx context.Context, tx Tx) ([]*model.UserExpiry, error)
	CountActiveUsers(ctx context.Context, tx Tx, asOf time.Time) (int, error)
}
