package repository

import "context"

// ChatStateRepository remembers the last bot message per chat so the next
// screen can replace it instead of piling up.
type ChatStateRepository interface {
	// GetLastMessage returns the stored message id or domain.ErrNotFound.
	GetLastMessage(ctx context.Context, chatID int64) (int, error)
	SetLastMessage(ctx context.Context, chatID int64, messageID int) error
	ClearLastMessage(ctx context.Context, chatID int64) error
}
