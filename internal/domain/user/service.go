package user

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// SetAvailability toggles whether the engineer shows up for FIND_AVAILABLE
// auto-assignment. Only engineers have availability.
func (s *Service) SetAvailability(ctx context.Context, id uuid.UUID, available bool) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsEngineer() {
		return nil, ErrNotAnEngineerAccount
	}
	if err := s.repo.SetAvailability(ctx, id, available); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// SetHourlyRate updates the engineer's pay rate in cents per hour.
func (s *Service) SetHourlyRate(ctx context.Context, id uuid.UUID, rateCents int64) (*User, error) {
	if rateCents <= 0 {
		return nil, ErrInvalidRate
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsEngineer() {
		return nil, ErrNotAnEngineerAccount
	}
	if err := s.repo.SetHourlyRate(ctx, id, rateCents); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}
