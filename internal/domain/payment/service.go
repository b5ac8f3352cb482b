package payment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	stripe "github.com/stripe/stripe-go/v82"

	"github.com/stoodioz/stoodioz-api/internal/domain/subscription"
	"github.com/stoodioz/stoodioz-api/internal/domain/wallet"
)

// CheckoutClient is the slice of the Stripe client the service calls.
type CheckoutClient interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

// WalletCreditor lands completed add-funds payments in the ledger.
type WalletCreditor interface {
	Credit(ctx context.Context, userID uuid.UUID, amount int64, category wallet.Category, status wallet.Status, description, referenceID string, bookingID uuid.NullUUID) (*wallet.Transaction, error)
}

// TierSubscriber activates the purchased tier.
type TierSubscriber interface {
	Subscribe(ctx context.Context, userID uuid.UUID, tier subscription.Tier) (*subscription.Subscription, error)
}

type Service struct {
	repo     Repository
	checkout CheckoutClient
	wallets  WalletCreditor
	tiers    TierSubscriber

	successURL string
	cancelURL  string
}

func NewService(repo Repository, checkout CheckoutClient, wallets WalletCreditor, tiers TierSubscriber, successURL, cancelURL string) *Service {
	return &Service{
		repo:       repo,
		checkout:   checkout,
		wallets:    wallets,
		tiers:      tiers,
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateAddFundsCheckout opens a hosted checkout for a wallet top up and
// records the pending payment.
func (s *Service) CreateAddFundsCheckout(ctx context.Context, userID uuid.UUID, amountCents int64) (*Payment, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.createCheckout(ctx, &Payment{
		ID:          uuid.New(),
		UserID:      userID,
		Purpose:     PurposeAddFunds,
		AmountCents: amountCents,
	}, "Stoodioz wallet top up")
}

// CreateSubscriptionCheckout opens a hosted checkout for a paid tier.
func (s *Service) CreateSubscriptionCheckout(ctx context.Context, userID uuid.UUID, tier subscription.Tier) (*Payment, error) {
	price := tier.MonthlyPriceCents()
	if price <= 0 {
		return nil, subscription.ErrUnknownTier
	}
	return s.createCheckout(ctx, &Payment{
		ID:          uuid.New(),
		UserID:      userID,
		Purpose:     PurposeSubscription,
		AmountCents: price,
		Tier:        sql.NullString{String: string(tier), Valid: true},
	}, "Stoodioz "+string(tier)+" subscription")
}

func (s *Service) createCheckout(ctx context.Context, p *Payment, productName string) (*Payment, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String("payment"),
		UIMode:     stripe.String("hosted"),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency:   stripe.String("usd"),
				UnitAmount: stripe.Int64(p.AmountCents),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(productName),
				},
			},
			Quantity: stripe.Int64(1),
		}},
		Metadata: map[string]string{
			"payment_id": p.ID.String(),
			"user_id":    p.UserID.String(),
			"purpose":    string(p.Purpose),
		},
	}

	session, err := s.checkout.Create(ctx, params)
	if err != nil {
		log.Error().Err(err).Str("user_id", p.UserID.String()).Msg("stripe checkout creation failed")
		return nil, ErrCheckoutFailed
	}

	now := time.Now()
	p.Status = StatusCreated
	p.CheckoutSessionID = session.ID
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	p.CheckoutURL = session.URL

	log.Info().
		Str("payment_id", p.ID.String()).
		Str("purpose", string(p.Purpose)).
		Int64("amount_cents", p.AmountCents).
		Msg("checkout session created")
	return p, nil
}

// CompleteCheckout is called by the webhook when a session is paid. It is
// idempotent over redeliveries: only the call that flips the payment to
// COMPLETED runs the side effect.
func (s *Service) CompleteCheckout(ctx context.Context, sessionID string) error {
	p, err := s.repo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if p.Status == StatusCompleted {
		log.Debug().Str("payment_id", p.ID.String()).Msg("duplicate checkout completion ignored")
		return nil
	}

	// Side effects run before the status flip so a transient failure leaves
	// the row CREATED and Stripe's redelivery retries the whole thing. Both
	// branches are idempotent, so a redelivery that raced the flip is safe.
	switch p.Purpose {
	case PurposeAddFunds:
		_, err = s.wallets.Credit(ctx, p.UserID, p.AmountCents, wallet.CategoryAddFunds, wallet.StatusCompleted,
			"Wallet top up", "stripe:"+sessionID, uuid.NullUUID{})
		if errors.Is(err, wallet.ErrDuplicateReference) {
			err = nil
		}
	case PurposeSubscription:
		_, err = s.tiers.Subscribe(ctx, p.UserID, subscription.Tier(p.Tier.String))
		if errors.Is(err, subscription.ErrAlreadyOnTier) {
			err = nil
		}
	}
	if err != nil {
		return err
	}

	flipped, err := s.repo.MarkCompleted(ctx, p.ID)
	if err != nil {
		return err
	}
	if !flipped {
		log.Debug().Str("payment_id", p.ID.String()).Msg("checkout already completed by a concurrent delivery")
		return nil
	}

	log.Info().
		Str("payment_id", p.ID.String()).
		Str("purpose", string(p.Purpose)).
		Msg("payment completed")
	return nil
}

// ListPayments returns the user's checkout history.
func (s *Service) ListPayments(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Payment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ExpireStale sweeps abandoned checkouts. Run from the scheduler.
func (s *Service) ExpireStale(ctx context.Context, age time.Duration) error {
	n, err := s.repo.ExpireStale(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("stale checkout sessions expired")
	}
	return nil
}
