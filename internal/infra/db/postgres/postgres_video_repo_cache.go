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

var _ repository.VideoRepository = (*videoRepoCacheDecorator)(nil)

const videoListKey = "videos:for_sale"

type videoRepoCacheDecorator struct {
	inner repository.VideoRepository
	cache red.RedisClient
	ttl   time.Duration
	log   zerolog.Logger
}

func NewVideoRepoCacheDecorator(inner repository.VideoRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.VideoRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &videoRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   logger.With().Str("component", "video_cache").Logger(),
	}
}

func videoKey(id int) string { return fmt.Sprintf("video:%d", id) }

func (d *videoRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int) (*model.Video, error) {
	key := videoKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var v model.Video
		if json.Unmarshal([]byte(val), &v) == nil {
			metrics.IncCacheRequest("video", "hit")
			return &v, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	metrics.IncCacheRequest("video", "miss")
	v, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(v); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return v, nil
}

func (d *videoRepoCacheDecorator) ListForSale(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	val, err := d.cache.Get(ctx, videoListKey)
	if err == nil {
		var vs []*model.Video
		if json.Unmarshal([]byte(val), &vs) == nil {
			metrics.IncCacheRequest("video_list", "hit")
			return vs, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", videoListKey).Msg("cache read failed")
	}

	metrics.IncCacheRequest("video_list", "miss")
	vs, err := d.inner.ListForSale(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(vs) > 0 {
		if b, err := json.Marshal(vs); err == nil {
			_ = d.cache.Set(ctx, videoListKey, b, d.ttl)
		}
	}
	return vs, nil
}

func (d *videoRepoCacheDecorator) List(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	return d.inner.List(ctx, tx)
}

// Update writes through and drops the lesson and the sale list.
func (d *videoRepoCacheDecorator) Update(ctx context.Context, tx repository.Tx, v *model.Video) error {
	if err := d.inner.Update(ctx, tx, v); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, videoListKey, videoKey(v.ID)); err != nil {
		d.log.Warn().Err(err).Int("video_id", v.ID).Msg("cache invalidation failed")
	}
	return nil
}

// Seed writes through and drops every cached catalog entry it touched.
func (d *videoRepoCacheDecorator) Seed(ctx context.Context, tx repository.Tx, videos []*model.Video) error {
	if err := d.inner.Seed(ctx, tx, videos); err != nil {
		return err
	}
	keys := make([]string, 0, len(videos)+1)
	keys = append(keys, videoListKey)
	for _, v := range videos {
		keys = append(keys, videoKey(v.ID))
	}
	if err := d.cache.Del(ctx, keys...); err != nil {
		d.log.Warn().Err(err).Msg("cache invalidation failed")
	}
	return nil
}
