package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetBySessionID(ctx context.Context, sessionID string) (*Payment, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Payment, error)

	// MarkCompleted flips CREATED to COMPLETED and reports whether this
	// call did the flip. A second webhook delivery gets false.
	MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error)

	// ExpireStale marks CREATED payments older than cutoff as EXPIRED.
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, p *Payment) error {
	query := `
		INSERT INTO payments (id, user_id, purpose, amount_cents, tier, status, checkout_session_id, created_at, updated_at)
		VALUES (:id, :user_id, :purpose, :amount_cents, :tier, :status, :checkout_session_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetBySessionID(ctx context.Context, sessionID string) (*Payment, error) {
	var p Payment
	err := r.db.GetContext(ctx, &p, `
		SELECT id, user_id, purpose, amount_cents, tier, status, checkout_session_id, created_at, updated_at
		FROM payments WHERE checkout_session_id = $1`, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Payment, error) {
	payments := make([]*Payment, 0)
	err := r.db.SelectContext(ctx, &payments, `
		SELECT id, user_id, purpose, amount_cents, tier, status, checkout_session_id, created_at, updated_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *postgresRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		StatusCompleted, time.Now(), id, StatusCreated)
	if err != nil {
		return false, fmt.Errorf("failed to complete payment: %w", err)
	}
	n, err := res.RowsAffected()
	return err == nil && n > 0, nil
}

func (r *postgresRepository) ExpireStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE payments SET status = $1, updated_at = $2
		WHERE status = $3 AND created_at < $4`,
		StatusExpired, time.Now(), StatusCreated, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire payments: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
