package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

// CatalogSize is the number of lessons in the catalog.
const CatalogSize = 10

type CatalogUseCase interface {
	// Seed makes sure lessons 1..CatalogSize exist. fileIDs[i] belongs to lesson i+1.
	Seed(ctx context.Context, fileIDs []string) error
	ListForSale(ctx context.Context) ([]*model.Video, error)
	// List returns every lesson, with or without a file.
	List(ctx context.Context) ([]*model.Video, error)
	// AttachFile puts an uploaded file behind lesson videoID. An empty title keeps the current one.
	AttachFile(ctx context.Context, videoID int, fileID, title string) (*model.Video, error)
	// Withdraw clears the lesson's file so it is no longer sold or delivered.
	Withdraw(ctx context.Context, videoID int) error
}

type catalogUC struct {
	videos repository.VideoRepository
	log    *zerolog.Logger
}

func NewCatalogUseCase(videos repository.VideoRepository, logger *zerolog.Logger) *catalogUC {
	return &catalogUC{videos: videos, log: logger}
}

func (c *catalogUC) Seed(ctx context.Context, fileIDs []string) error {
	items := make([]*model.Video, 0, CatalogSize)
	for i := 1; i <= CatalogSize; i++ {
		v := &model.Video{ID: i, Title: model.DefaultVideoTitle(i)}
		if i <= len(fileIDs) {
			v.FileID = fileIDs[i-1]
		}
		items = append(items, v)
	}
	if err := c.videos.Seed(ctx, repository.NoTX, items); err != nil {
		return err
	}
	c.log.Info().Int("lessons", CatalogSize).Int("with_files", len(fileIDs)).Msg("catalog seeded")
	return nil
}

func (c *catalogUC) ListForSale(ctx context.Context) ([]*model.Video, error) {
	return c.videos.ListForSale(ctx, repository.NoTX)
}

func (c *catalogUC) List(ctx context.Context) ([]*model.Video, error) {
	return c.videos.List(ctx, repository.NoTX)
}

func (c *catalogUC) AttachFile(ctx context.Context, videoID int, fileID, title string) (*model.Video, error) {
	fileID = strings.TrimSpace(fileID)
	if videoID < 1 || videoID > CatalogSize || fileID == "" {
		return nil, domain.ErrInvalidArgument
	}
	v, err := c.videos.FindByID(ctx, repository.NoTX, videoID)
	if err != nil {
		return nil, fmt.Errorf("find lesson %d: %w", videoID, err)
	}
	v.FileID = fileID
	if t := strings.TrimSpace(title); t != "" {
		v.Title = t
	}
	if err := c.videos.Update(ctx, repository.NoTX, v); err != nil {
		return nil, fmt.Errorf("update lesson %d: %w", videoID, err)
	}
	c.log.Info().Int("video_id", videoID).Str("title", v.Title).Msg("file attached to lesson")
	return v, nil
}

func (c *catalogUC) Withdraw(ctx context.Context, videoID int) error {
	if videoID < 1 || videoID > CatalogSize {
		return domain.ErrInvalidArgument
	}
	v, err := c.videos.FindByID(ctx, repository.NoTX, videoID)
	if err != nil {
		return fmt.Errorf("find lesson %d: %w", videoID, err)
	}
	v.FileID = ""
	if err := c.videos.Update(ctx, repository.NoTX, v); err != nil {
		return fmt.Errorf("update lesson %d: %w", videoID, err)
	}
	c.log.Info().Int("video_id", videoID).Msg("lesson withdrawn from sale")
	return nil
}
