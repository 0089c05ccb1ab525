package telegram

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/ports/adapter"
)

var _ adapter.ChatTransport = (*NoopBotAdapter)(nil)

// NoopBotAdapter implements adapter.ChatTransport for dry runs.
// It logs messages instead of sending real Telegram messages.
type NoopBotAdapter struct {
	lastID atomic.Int64
	log    *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	l := logger.With().Str("component", "NoopTelegram").Logger()
	return &NoopBotAdapter{log: &l}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, params adapter.SendMessageParams) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := int(b.lastID.Add(1))
	b.log.Info().Int64("chat_id", params.ChatID).Int("message_id", id).Int("button_rows", len(params.Rows)).
		Str("text", params.Text).Msg("send message")
	return id, nil
}

func (b *NoopBotAdapter) SendVideo(ctx context.Context, chatID int64, fileID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	id := int(b.lastID.Add(1))
	b.log.Info().Int64("chat_id", chatID).Int("message_id", id).Str("file_id", fileID).Msg("send video")
	return id, nil
}

func (b *NoopBotAdapter) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Int("message_id", messageID).Msg("delete message")
	return nil
}
