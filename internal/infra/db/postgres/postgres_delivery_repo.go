package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

var _ repository.DeliveryRepository = (*deliveryRepo)(nil)

type deliveryRepo struct{ pool *pgxpool.Pool }

func NewDeliveryRepo(pool *pgxpool.Pool) *deliveryRepo {
	return &deliveryRepo{pool: pool}
}

func (r *deliveryRepo) Save(ctx context.Context, tx repository.Tx, d *model.ScheduledDeletion) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	const q = `
INSERT INTO sent_videos (id, user_id, chat_id, message_id, delete_after, created_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	_, err := execSQL(ctx, r.pool, tx, q, d.ID, d.UserID, d.ChatID, d.MessageID, d.DeleteAfter, d.CreatedAt)
	return storageErr(err)
}

func (r *deliveryRepo) ListDue(ctx context.Context, tx repository.Tx, asOf time.Time, limit int) ([]*model.ScheduledDeletion, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `
SELECT id, user_id, chat_id, message_id, delete_after, created_at
  FROM sent_videos
 WHERE delete_after <= $1
 ORDER BY delete_after ASC
 LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, asOf, limit)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []*model.ScheduledDeletion
	for rows.Next() {
		var d model.ScheduledDeletion
		if err := rows.Scan(&d.ID, &d.UserID, &d.ChatID, &d.MessageID, &d.DeleteAfter, &d.CreatedAt); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, &d)
	}
	return out, storageErr(rows.Err())
}

func (r *deliveryRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM sent_videos WHERE id=$1;`, id)
	return storageErr(err)
}
