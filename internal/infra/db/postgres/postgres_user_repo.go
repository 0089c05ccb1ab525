package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

func (r *PostgresUserRepo) GetOrCreate(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	const ins = `INSERT INTO users (id, created_at) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING;`
	if _, err := execSQL(ctx, r.pool, tx, ins, id, time.Now().UTC()); err != nil {
		return nil, storageErr(err)
	}
	return r.FindByID(ctx, tx, id)
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	const q = `SELECT id, created_at, is_privileged, privileged_since FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.IsPrivileged, &u.PrivilegedSince); err != nil {
		return nil, scanErr(err)
	}
	return &u, nil
}

func (r *PostgresUserRepo) SetPrivileged(ctx context.Context, tx repository.Tx, id int64, privileged bool) error {
	const q = `
UPDATE users
   SET is_privileged = $2,
       privileged_since = CASE WHEN $2 THEN NOW() ELSE NULL END
 WHERE id = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, privileged)
	return storageErr(err)
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, int, error) {
	const q = `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_privileged) FROM users;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, 0, err
	}
	var total, privileged int
	if err := row.Scan(&total, &privileged); err != nil {
		return 0, 0, scanErr(err)
	}
	return total, privileged, nil
}
