package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// Stats is the admin dashboard snapshot.
type Stats struct {
	Users       int
	Privileged  int
	ActiveUsers int

	VideosTotal   int
	VideosForSale int

	PaymentsTotal   int
	PaymentsPending int
	PaymentsSuccess int
}

type StatsUseCase interface {
	Snapshot(ctx context.Context) (*Stats, error)
}

type statsUC struct {
	users    repository.UserRepository
	access   repository.AccessRepository
	payments repository.PaymentRepository
	videos   repository.VideoRepository

	now func() time.Time
	log *zerolog.Logger
}

func NewStatsUseCase(
	users repository.UserRepository,
	access repository.AccessRepository,
	payments repository.PaymentRepository,
	videos repository.VideoRepository,
	logger *zerolog.Logger,
) *statsUC {
	return &statsUC{users: users, access: access, payments: payments, videos: videos, now: time.Now, log: logger}
}

func (s *statsUC) Snapshot(ctx context.Context) (*Stats, error) {
	out := &Stats{}
	var err error
	if out.Users, out.Privileged, err = s.users.CountUsers(ctx, repository.NoTX); err != nil {
		return nil, err
	}
	if out.ActiveUsers, err = s.access.CountActiveUsers(ctx, repository.NoTX, s.now().UTC()); err != nil {
		return nil, err
	}

	videos, err := s.videos.List(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	out.VideosTotal = len(videos)
	for _, v := range videos {
		if v.ForSale() {
			out.VideosForSale++
		}
	}

	byStatus, err := s.payments.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	for _, n := range byStatus {
		out.PaymentsTotal += n
	}
	out.PaymentsPending = byStatus[model.PaymentStatusPending]
	out.PaymentsSuccess = byStatus[model.PaymentStatusSuccess]
	return out, nil
}
