package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
	"telegram-video-access/internal/infra/metrics"
	red "telegram-video-access/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches user rows. Every bot update resolves its user,
// so the lookup is the hottest query of the bot.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
	log   zerolog.Logger
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.UserRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger.With().Str("component", "user_cache").Logger(),
	}
}

func userKey(id int64) string { return fmt.Sprintf("user:id:%d", id) }

func (d *userRepoCacheDecorator) GetOrCreate(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	u, err := d.inner.GetOrCreate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, u)
	return u, nil
}

// FindByID reads through the cache outside transactions only.
func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.User, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := userKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var u model.User
		if json.Unmarshal([]byte(val), &u) == nil {
			metrics.IncCacheRequest("user", "hit")
			return &u, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	metrics.IncCacheRequest("user", "miss")
	u, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, u)
	return u, nil
}

// SetPrivileged writes through and drops the cached row.
func (d *userRepoCacheDecorator) SetPrivileged(ctx context.Context, tx repository.Tx, id int64, privileged bool) error {
	if err := d.inner.SetPrivileged(ctx, tx, id, privileged); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, userKey(id)); err != nil {
		d.log.Warn().Err(err).Int64("user_id", id).Msg("cache invalidation failed")
	}
	return nil
}

func (d *userRepoCacheDecorator) CountUsers(ctx context.Context, tx repository.Tx) (int, int, error) {
	return d.inner.CountUsers(ctx, tx)
}

func (d *userRepoCacheDecorator) store(ctx context.Context, u *model.User) {
	if u == nil {
		return
	}
	if b, err := json.Marshal(u); err == nil {
		_ = d.cache.Set(ctx, userKey(u.ID), b, d.ttl)
	}
}
