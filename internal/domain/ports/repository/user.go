package repository

import (
	"context"

	"telegram-video-access/internal/domain/model"
)

// -----------------------------
// Users and catalog
// -----------------------------

type UserRepository interface {
	// GetOrCreate returns the user, inserting it on first contact.
	GetOrCreate(ctx context.Context, tx Tx, id int64) (*model.User, error)
	FindByID(ctx context.Context, tx Tx, id int64) (*model.User, error)
	SetPrivileged(ctx context.Context, tx Tx, id int64, privileged bool) error
	// CountUsers returns the number of known users and how many of them are privileged.
	CountUsers(ctx context.Context, tx Tx) (total, privileged int, err error)
}

type VideoRepository interface {
	FindByID(ctx context.Context, tx Tx, id int) (*model.Video, error)
	ListForSale(ctx context.Context, tx Tx) ([]*model.Video, error)
	// List returns the whole catalog, with or without a file, ordered by id.
	List(ctx context.Context, tx Tx) ([]*model.Video, error)
	// Update overwrites title and file id of an existing lesson or returns domain.ErrNotFound.
	Update(ctx context.Context, tx Tx, v *model.Video) error
	// Seed inserts missing catalog rows and refreshes file ids that changed.
	Seed(ctx context.Context, tx Tx, videos []*model.Video) error
}
