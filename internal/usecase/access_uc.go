package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
	"telegram-video-access/internal/infra/metrics"
)

// Compile-time check
var _ AccessUseCase = (*accessUC)(nil)

// AccessUseCase owns per-(user, video) access windows. Windows only ever grow.
type AccessUseCase interface {
	// Grant extends every video by days starting from max(now, current until).
	// Each video is a separate write since prior expiries differ.
	Grant(ctx context.Context, tx repository.Tx, userID int64, videoIDs []int, days int) error
	AccessUntil(ctx context.Context, userID int64, videoID int) (time.Time, error)
	AccessibleItems(ctx context.Context, userID int64, asOf time.Time) ([]*model.AccessGrant, error)
	MaxAccessUntil(ctx context.Context, userID int64) (time.Time, error)
	// CanAccess reports whether user may watch videoID now. Privileged users get a nil until.
	CanAccess(ctx context.Context, user *model.User, videoID int) (*time.Time, bool, error)
}

type accessUC struct {
	access repository.AccessRepository
	now    func() time.Time
	log    *zerolog.Logger
}

func NewAccessUseCase(access repository.AccessRepository, logger *zerolog.Logger) *accessUC {
	return &accessUC{access: access, now: time.Now, log: logger}
}

func (a *accessUC) Grant(ctx context.Context, tx repository.Tx, userID int64, videoIDs []int, days int) error {
	if days <= 0 || userID == 0 {
		return domain.ErrInvalidArgument
	}
	ids := model.NormalizeVideoIDs(videoIDs)
	if len(ids) == 0 {
		return domain.ErrInvalidArgument
	}
	now := a.now().UTC()
	for _, id := range ids {
		until, err := a.access.Extend(ctx, tx, userID, id, now, days)
		if err != nil {
			return err
		}
		a.log.Debug().Int64("user_id", userID).Int("video_id", id).Time("until", until).Msg("access extended")
	}
	metrics.AddAccessGrants(days, len(ids))
	return nil
}

func (a *accessUC) AccessUntil(ctx context.Context, userID int64, videoID int) (time.Time, error) {
	return a.access.FindUntil(ctx, repository.NoTX, userID, videoID)
}

func (a *accessUC) AccessibleItems(ctx context.Context, userID int64, asOf time.Time) ([]*model.AccessGrant, error) {
	return a.access.ListActive(ctx, repository.NoTX, userID, asOf)
}

func (a *accessUC) MaxAccessUntil(ctx context.Context, userID int64) (time.Time, error) {
	return a.access.MaxUntil(ctx, repository.NoTX, userID)
}

func (a *accessUC) CanAccess(ctx context.Context, user *model.User, videoID int) (*time.Time, bool, error) {
	if user.IsZero() {
		return nil, false, domain.ErrInvalidArgument
	}
	if user.IsPrivileged {
		return nil, true, nil
	}
	until, err := a.access.FindUntil(ctx, repository.NoTX, user.ID, videoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !until.After(a.now()) {
		return nil, false, nil
	}
	return &until, true, nil
}
