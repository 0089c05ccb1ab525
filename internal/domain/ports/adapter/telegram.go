// File: internal/domain/ports/adapter/telegram.go
package adapter

import "context"

type InlineButton struct {
	Text string
	Data string
	URL  string
}

// SendMessageParams describes one text message.
type SendMessageParams struct {
	ChatID int64
	Text   string
	Rows   [][]InlineButton
}

// ChatTransport is the messaging platform as seen by the core. Every call is best-effort.
type ChatTransport interface {
	SendMessage(ctx context.Context, params SendMessageParams) (messageID int, err error)
	// SendVideo delivers a protected (non-forwardable) video and returns the message id.
	SendVideo(ctx context.Context, chatID int64, fileID string) (messageID int, err error)
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}
