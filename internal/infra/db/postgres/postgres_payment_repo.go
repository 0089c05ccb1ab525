package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, label, amount, status, video_ids, duration_days, created_at, paid_at`

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.UserID, p.Label, p.Amount, string(p.Status), toInt32s(p.VideoIDs), p.DurationDays, p.CreatedAt, p.PaidAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrLabelConflict
		}
		return storageErr(err)
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) FindLatestPendingByUser(ctx context.Context, tx repository.Tx, userID int64) (*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments
WHERE user_id=$1 AND status='pending' ORDER BY created_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanPayment(row)
}

func (r *paymentRepo) ListPending(ctx context.Context, tx repository.Tx, after *repository.PendingCursor, limit int) ([]*model.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + paymentColumns + ` FROM payments WHERE status='pending'`
	args := []interface{}{limit}
	if after != nil {
		q += ` AND (created_at, id) > ($2, $3)`
		args = append(args, after.CreatedAt, after.ID)
	}
	q += ` ORDER BY created_at ASC, id ASC LIMIT $1;`

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// MarkSuccess atomically updates status only when the current status is 'pending'.
func (r *paymentRepo) MarkSuccess(ctx context.Context, tx repository.Tx, id string, paidAt time.Time) (bool, error) {
	const q = `
UPDATE payments
   SET status = 'success',
       paid_at = $2
 WHERE id = $1
   AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, paidAt)
	if err != nil {
		return false, storageErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *paymentRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.PaymentStatus]int, error) {
	rows, err := queryRows(ctx, r.pool, tx, `SELECT status, COUNT(*) FROM payments GROUP BY status;`)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	out := map[model.PaymentStatus]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, scanErr(err)
		}
		out[model.PaymentStatus(status)] = n
	}
	return out, storageErr(rows.Err())
}

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		status string
		ids    []int32
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Label, &p.Amount, &status, &ids, &p.DurationDays, &p.CreatedAt, &p.PaidAt); err != nil {
		return nil, scanErr(err)
	}
	p.Status = model.PaymentStatus(status)
	p.VideoIDs = fromInt32s(ids)
	return &p, nil
}

func toInt32s(ids []int) []int32 {
	out := make([]int32, len(ids))
	for i, id := range ids {
		out[i] = int32(id)
	}
	return out
}

func fromInt32s(ids []int32) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
