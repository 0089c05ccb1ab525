package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

var _ repository.AccessRepository = (*accessRepo)(nil)

type accessRepo struct{ pool *pgxpool.Pool }

func NewAccessRepo(pool *pgxpool.Pool) *accessRepo {
	return &accessRepo{pool: pool}
}

func (r *accessRepo) FindUntil(ctx context.Context, tx repository.Tx, userID int64, videoID int) (time.Time, error) {
	const q = `SELECT access_until FROM user_video_access WHERE user_id=$1 AND video_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, videoID)
	if err != nil {
		return time.Time{}, err
	}
	var until time.Time
	if err := row.Scan(&until); err != nil {
		return time.Time{}, scanErr(err)
	}
	return until, nil
}

// Extend base-extends from GREATEST(now, current) in one statement, so two grants on
// the same pair never read the same prior value. A day is a fixed 86400 seconds,
// independent of the session time zone.
func (r *accessRepo) Extend(ctx context.Context, tx repository.Tx, userID int64, videoID int, now time.Time, days int) (time.Time, error) {
	const q = `
INSERT INTO user_video_access (user_id, video_id, access_until)
VALUES ($1, $2, $3::timestamptz + make_interval(secs => $4::int * 86400))
ON CONFLICT (user_id, video_id) DO UPDATE
   SET access_until = GREATEST(user_video_access.access_until, $3::timestamptz) + make_interval(secs => $4::int * 86400)
RETURNING access_until;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, videoID, now, days)
	if err != nil {
		return time.Time{}, err
	}
	var until time.Time
	if err := row.Scan(&until); err != nil {
		return time.Time{}, storageErr(err)
	}
	return until, nil
}

func (r *accessRepo) ListActive(ctx context.Context, tx repository.Tx, userID int64, asOf time.Time) ([]*model.AccessGrant, error) {
	const q = `SELECT user_id, video_id, access_until FROM user_video_access
WHERE user_id=$1 AND access_until > $2 ORDER BY video_id;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, asOf)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []*model.AccessGrant
	for rows.Next() {
		var g model.AccessGrant
		if err := rows.Scan(&g.UserID, &g.VideoID, &g.AccessUntil); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, &g)
	}
	return out, storageErr(rows.Err())
}

func (r *accessRepo) MaxUntil(ctx context.Context, tx repository.Tx, userID int64) (time.Time, error) {
	// MAX over zero rows yields one NULL row; scan into a pointer to tell it apart.
	const q = `SELECT MAX(access_until) FROM user_video_access WHERE user_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return time.Time{}, err
	}
	var until *time.Time
	if err := row.Scan(&until); err != nil {
		return time.Time{}, scanErr(err)
	}
	if until == nil {
		return time.Time{}, domain.ErrNotFound
	}
	return *until, nil
}

func (r *accessRepo) ListUserMaxUntil(ctx context.Context, tx repository.Tx) ([]*model.UserExpiry, error) {
	const q = `SELECT user_id, MAX(access_until) FROM user_video_access GROUP BY user_id ORDER BY user_id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []*model.UserExpiry
	for rows.Next() {
		var e model.UserExpiry
		if err := rows.Scan(&e.UserID, &e.MaxUntil); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, &e)
	}
	return out, storageErr(rows.Err())
}

// CountActiveUsers counts users holding at least one grant that ends after asOf.
func (r *accessRepo) CountActiveUsers(ctx context.Context, tx repository.Tx, asOf time.Time) (int, error) {
	const q = `SELECT COUNT(DISTINCT user_id) FROM user_video_access WHERE access_until > $1;`
	row, err := pickRow(ctx, r.pool, tx, q, asOf)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, scanErr(err)
	}
	return n, nil
}
