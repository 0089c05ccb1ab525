//go:build !integration

package postgres

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
	red "telegram-video-access/internal/infra/redis"
)

// mockInnerVideoRepo mocks the database repository that the video decorator wraps.
type mockInnerVideoRepo struct {
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id int) (*model.Video, error)
	ListForSaleFunc func(ctx context.Context, tx repository.Tx) ([]*model.Video, error)
	SeedFunc        func(ctx context.Context, tx repository.Tx, videos []*model.Video) error
	ListFunc        func(ctx context.Context, tx repository.Tx) ([]*model.Video, error)
	UpdateFunc      func(ctx context.Context, tx repository.Tx, v *model.Video) error
}

func (m *mockInnerVideoRepo) FindByID(ctx context.Context, tx repository.Tx, id int) (*model.Video, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerVideoRepo) ListForSale(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	return m.ListForSaleFunc(ctx, tx)
}
func (m *mockInnerVideoRepo) Seed(ctx context.Context, tx repository.Tx, videos []*model.Video) error {
	return m.SeedFunc(ctx, tx, videos)
}
func (m *mockInnerVideoRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Video, error) {
	return m.ListFunc(ctx, tx)
}
func (m *mockInnerVideoRepo) Update(ctx context.Context, tx repository.Tx, v *model.Video) error {
	return m.UpdateFunc(ctx, tx, v)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	SetNXFunc  func(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return m.SetNXFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
