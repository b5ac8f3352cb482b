package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Service exposes the two ledger verbs the rest of the system uses: Debit
// and Credit. Everything that moves money goes through them, so the balance
// invariant (balance == sum of entry amounts) holds on every path.
type Service struct {
	repo Repository
}

// NewService creates wallet service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Debit removes amount cents from the user's wallet. Debits may drive the
// balance negative; only withdrawals check funds.
func (s *Service) Debit(ctx context.Context, userID uuid.UUID, amount int64, category Category, description, referenceID string, bookingID uuid.NullUUID) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry, err := s.repo.Apply(ctx, Entry{
		UserID:       userID,
		Amount:       -amount,
		Category:     category,
		Status:       StatusCompleted,
		Description:  description,
		BookingID:    bookingID,
		ReferenceID:  referenceID,
		EnforceFunds: category == CategoryWithdrawal,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("category", string(category)).
		Str("reference_id", referenceID).
		Msg("wallet debit applied")
	return entry, nil
}

// Credit adds amount cents to the user's wallet. Session payouts pass
// StatusPending and settle later; refunds, tips and add-funds complete
// immediately.
func (s *Service) Credit(ctx context.Context, userID uuid.UUID, amount int64, category Category, status Status, description, referenceID string, bookingID uuid.NullUUID) (*Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	entry, err := s.repo.Apply(ctx, Entry{
		UserID:      userID,
		Amount:      amount,
		Category:    category,
		Status:      status,
		Description: description,
		BookingID:   bookingID,
		ReferenceID: referenceID,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID.String()).
		Int64("amount", amount).
		Str("category", string(category)).
		Str("status", string(status)).
		Str("reference_id", referenceID).
		Msg("wallet credit applied")
	return entry, nil
}

// Withdraw debits with a sufficient-funds guard.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, amount int64, referenceID string) (*Transaction, error) {
	return s.Debit(ctx, userID, amount, CategoryWithdrawal, "Withdrawal to bank account", referenceID, uuid.NullUUID{})
}

// GetBalance returns the cached running balance.
func (s *Service) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

// ListTransactions returns the user's ledger history, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// SettleDue completes pending payouts older than the settlement delay and
// returns the settled entries so callers can notify payees.
func (s *Service) SettleDue(ctx context.Context, delay time.Duration) ([]*Transaction, error) {
	settled, err := s.repo.SettleDue(ctx, time.Now().Add(-delay))
	if err != nil {
		return nil, err
	}
	if len(settled) > 0 {
		log.Info().Int("count", len(settled)).Msg("pending payouts settled")
	}
	return settled, nil
}
