package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

var _ repository.VideoRepository = (*videoRepo)(nil)

type videoRepo struct{ pool *pgxpool.Pool }

func NewVideoRepo(pool *pgxpool.Pool) *videoRepo {
	return &videoRepo{pool: pool}
}

func (r *videoRepo) FindByID(ctx context.Context, tx repository.Tx, id int) (*model.Video, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT id, title, file_id FROM videos WHERE id=$1;`, id)
	if err != nil {
		return nil, err
	}
	var v model.Video
	if err := row.Scan(&v.ID, &v.Title, &v.FileID); err != nil {
		return nil, scanErr(err)
	}
	return &v, nil
}

func (r *videoRepo) ListForSale(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	return r.list(ctx, tx, `SELECT id, title, file_id FROM videos WHERE file_id <> '' ORDER BY id;`)
}

func (r *videoRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	return r.list(ctx, tx, `SELECT id, title, file_id FROM videos ORDER BY id;`)
}

func (r *videoRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.Video, error) {
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []*model.Video
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.FileID); err != nil {
			return nil, scanErr(err)
		}
		out = append(out, &v)
	}
	return out, storageErr(rows.Err())
}

func (r *videoRepo) Update(ctx context.Context, tx repository.Tx, v *model.Video) error {
	const q = `UPDATE videos SET title=$2, file_id=$3 WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, v.ID, v.Title, v.FileID)
	if err != nil {
		return storageErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Seed keeps existing titles and only replaces a file id when a non-empty new one differs.
func (r *videoRepo) Seed(ctx context.Context, tx repository.Tx, videos []*model.Video) error {
	const q = `
INSERT INTO videos (id, title, file_id) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE
   SET file_id = EXCLUDED.file_id
 WHERE EXCLUDED.file_id <> '' AND videos.file_id IS DISTINCT FROM EXCLUDED.file_id;`
	for _, v := range videos {
		if _, err := execSQL(ctx, r.pool, tx, q, v.ID, v.Title, v.FileID); err != nil {
			return storageErr(err)
		}
	}
	return nil
}
