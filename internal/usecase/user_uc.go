package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
	"telegram-video-access/internal/infra/logging"
	"telegram-video-access/internal/infra/metrics"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase exposes user-related operations used by bot/admin flows.
type UserUseCase interface {
	RegisterOrFetch(ctx context.Context, tgID int64) (*model.User, error)
	SetPrivileged(ctx context.Context, tgID int64, privileged bool) error
}

type userUC struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		log:   logger,
	}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, tgID int64) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()

	if tgID <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	usr, err := u.users.FindByID(ctx, repository.NoTX, tgID)
	if err == nil {
		return usr, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	usr, err = u.users.GetOrCreate(ctx, repository.NoTX, tgID)
	if err != nil {
		return nil, err
	}
	metrics.IncUserSeen()
	u.log.Info().Int64("user_id", tgID).Msg("new user")
	return usr, nil
}

func (u *userUC) SetPrivileged(ctx context.Context, tgID int64, privileged bool) error {
	if _, err := u.users.GetOrCreate(ctx, repository.NoTX, tgID); err != nil {
		return err
	}
	if err := u.users.SetPrivileged(ctx, repository.NoTX, tgID, privileged); err != nil {
		return err
	}
	u.log.Info().Int64("user_id", tgID).Bool("privileged", privileged).Msg("privilege changed")
	return nil
}
