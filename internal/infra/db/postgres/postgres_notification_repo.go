package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-video-access/internal/domain/ports/repository"
)

var _ repository.NotificationWatermarkRepository = (*watermarkRepo)(nil)

type watermarkRepo struct {
	pool *pgxpool.Pool
}

func NewWatermarkRepo(pool *pgxpool.Pool) repository.NotificationWatermarkRepository {
	return &watermarkRepo{pool: pool}
}

func (r *watermarkRepo) Get(ctx context.Context, tx repository.Tx, userID int64) (time.Time, error) {
	const q = `SELECT notified_until FROM access_notifications WHERE user_id = $1`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return time.Time{}, err
	}
	var until time.Time
	if err := row.Scan(&until); err != nil {
		return time.Time{}, scanErr(err)
	}
	return until, nil
}

func (r *watermarkRepo) Set(ctx context.Context, tx repository.Tx, userID int64, notifiedUntil time.Time) error {
	const q = `
INSERT INTO access_notifications (user_id, notified_until)
VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET notified_until = EXCLUDED.notified_until`
	_, err := execSQL(ctx, r.pool, tx, q, userID, notifiedUntil)
	return storageErr(err)
}
