package telegram

import (
	"context"
	"testing"

	"telegram-video-access/internal/domain/ports/adapter"
)

func TestNoopBotAdapter(t *testing.T) {
	b := NewNoopBotAdapter(newTestLogger())
	ctx := context.Background()

	t.Run("should hand out increasing message ids", func(t *testing.T) {
		first, err := b.SendMessage(ctx, adapter.SendMessageParams{ChatID: 1, Text: "hi"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := b.SendVideo(ctx, 1, "file")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second <= first {
			t.Errorf("expected %d > %d", second, first)
		}
		if err := b.DeleteMessage(ctx, 1, first); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("should refuse a cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := b.SendMessage(cctx, adapter.SendMessageParams{ChatID: 1}); err == nil {
			t.Error("expected an error")
		}
	})
}
