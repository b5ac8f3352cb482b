package subscription

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service handles engineer subscription tiers. Billing for paid tiers rides
// the Stripe checkout flow; this service only records the resulting tier.
type Service struct {
	repo Repository
}

// NewService creates subscription service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetTier returns the user's current tier. Users with no subscription row
// are FREE.
func (s *Service) GetTier(ctx context.Context, userID uuid.UUID) (Tier, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return TierFree, err
	}
	if sub == nil {
		return TierFree, nil
	}
	return sub.Tier, nil
}

// CheckCanAccept returns ErrUpgradeRequired when the user's tier does not
// allow accepting sessions. The booking state machine calls this before
// every accept.
func (s *Service) CheckCanAccept(ctx context.Context, userID uuid.UUID) error {
	tier, err := s.GetTier(ctx, userID)
	if err != nil {
		return err
	}
	if !tier.CanAcceptSessions() {
		return ErrUpgradeRequired
	}
	return nil
}

// Subscribe switches the user to the given tier.
func (s *Service) Subscribe(ctx context.Context, userID uuid.UUID, tier Tier) (*Subscription, error) {
	switch tier {
	case TierFree, TierPlus, TierPro:
	default:
		return nil, ErrUnknownTier
	}

	current, err := s.GetTier(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == tier {
		return nil, ErrAlreadyOnTier
	}

	if err := s.repo.Upsert(ctx, userID, tier); err != nil {
		return nil, err
	}

	log.Info().Str("user_id", userID.String()).Str("tier", string(tier)).Msg("subscription tier changed")

	return s.repo.GetByUserID(ctx, userID)
}
