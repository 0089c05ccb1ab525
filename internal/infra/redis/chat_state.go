package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/ports/repository"
)

var _ repository.ChatStateRepository = (*ChatStateRepo)(nil)

// ChatStateRepo keeps the id of the last bot message per chat.
type ChatStateRepo struct {
	client RedisClient
	ttl    time.Duration
}

func NewChatStateRepo(client RedisClient, ttl time.Duration) *ChatStateRepo {
	if ttl <= 0 {
		// Telegram refuses to delete bot messages older than 48h.
		ttl = 48 * time.Hour
	}
	return &ChatStateRepo{client: client, ttl: ttl}
}

func lastMessageKey(chatID int64) string {
	return fmt.Sprintf("chat:last_msg:%d", chatID)
}

func (s *ChatStateRepo) GetLastMessage(ctx context.Context, chatID int64) (int, error) {
	val, err := s.client.Get(ctx, lastMessageKey(chatID))
	if errors.Is(err, redis.Nil) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	id, err := strconv.Atoi(val)
	if err != nil {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

func (s *ChatStateRepo) SetLastMessage(ctx context.Context, chatID int64, messageID int) error {
	return s.client.Set(ctx, lastMessageKey(chatID), strconv.Itoa(messageID), s.ttl)
}

func (s *ChatStateRepo) ClearLastMessage(ctx context.Context, chatID int64) error {
	return s.client.Del(ctx, lastMessageKey(chatID))
}
