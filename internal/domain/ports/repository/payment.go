package repository

import (
	"context"
	"time"

	"telegram-video-access/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	// Save inserts a new payment. A label collision returns domain.ErrLabelConflict.
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// FindLatestPendingByUser returns the newest pending payment of the user.
	FindLatestPendingByUser(ctx context.Context, tx Tx, userID int64) (*model.Payment, error)
	// ListPending returns up to limit pending payments ordered by (created_at, id),
	// starting strictly after the cursor. A nil cursor starts at the oldest one.
	ListPending(ctx context.Context, tx Tx, after *PendingCursor, limit int) ([]*model.Payment, error)
	// MarkSuccess flips pending to success. It reports whether this call changed the row.
	MarkSuccess(ctx context.Context, tx Tx, id string, paidAt time.Time) (bool, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.PaymentStatus]int, error)
}

// PendingCursor is the keyset position of the last payment of a page.
type PendingCursor struct {
	CreatedAt time.Time
	ID        string
}

func CursorAfter(p *model.Payment) *PendingCursor {
	return &PendingCursor{CreatedAt: p.CreatedAt, ID: p.ID}
}
