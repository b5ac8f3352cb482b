package wallet

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Entry describes one ledger mutation. Amount is signed cents.
type Entry struct {
	UserID      uuid.UUID
	Amount      int64
	Category    Category
	Status      Status
	Description string
	BookingID   uuid.NullUUID
	// ReferenceID makes the mutation idempotent: re-applying the same
	// reference with the same amount is a no-op, a different amount is a
	// conflict.
	ReferenceID string
	// EnforceFunds rejects the entry instead of driving the balance
	// negative. Booking-driven debits leave this off to match the
	// marketplace's historical behavior; withdrawals turn it on.
	EnforceFunds bool
}

// Repository persists the wallet ledger. Balance update and log append
// happen inside one transaction over a FOR UPDATE row lock, so the cached
// balance can never reflect only half of a mutation.
type Repository interface {
	Apply(ctx context.Context, e Entry) (*Transaction, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error)
	SettleDue(ctx context.Context, cutoff time.Time) ([]*Transaction, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates wallet repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ensureWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	return err
}

func (r *repository) lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (int64, error) {
	if err := r.ensureWallet(ctx, tx, userID); err != nil {
		return 0, err
	}

	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM user_wallets WHERE user_id = $1 FOR UPDATE`, userID)
	return balance, err
}

func (r *repository) getByReference(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, referenceID string) (*Transaction, error) {
	if referenceID == "" {
		return nil, nil
	}

	var existing Transaction
	err := tx.GetContext(ctx, &existing, `
		SELECT id, user_id, amount, category, status, description, booking_id, reference_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1 AND reference_id = $2
		LIMIT 1
	`, userID, referenceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *repository) Apply(ctx context.Context, e Entry) (*Transaction, error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	balance, err := r.lockWallet(ctx, tx, e.UserID)
	if err != nil {
		return nil, err
	}

	existing, err := r.getByReference(ctx, tx, e.UserID, e.ReferenceID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Amount != e.Amount {
			return nil, ErrReferenceConflict
		}
		return existing, nil
	}

	nextBalance := balance + e.Amount
	if e.EnforceFunds && nextBalance < 0 {
		return nil, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE user_wallets SET balance = $1, updated_at = NOW() WHERE user_id = $2`,
		nextBalance, e.UserID,
	); err != nil {
		return nil, err
	}

	entry := &Transaction{
		ID:          uuid.New(),
		UserID:      e.UserID,
		Amount:      e.Amount,
		Category:    e.Category,
		Status:      e.Status,
		Description: e.Description,
		BookingID:   e.BookingID,
		CreatedAt:   time.Now(),
	}
	if e.ReferenceID != "" {
		ref := e.ReferenceID
		entry.ReferenceID = &ref
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (id, user_id, amount, category, status, description, booking_id, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		entry.ID, entry.UserID, entry.Amount, entry.Category, entry.Status,
		entry.Description, entry.BookingID, entry.ReferenceID, entry.CreatedAt,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *repository) GetBalance(ctx context.Context, userID uuid.UUID) (int64, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_wallets (user_id, balance)
		VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return 0, err
	}

	var balance int64
	err = r.db.GetContext(ctx, &balance, `SELECT balance FROM user_wallets WHERE user_id = $1`, userID)
	return balance, err
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Transaction, error) {
	query := `
		SELECT id, user_id, amount, category, status, description, booking_id, reference_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	var txs []*Transaction
	err := r.db.SelectContext(ctx, &txs, query, userID, limit, offset)
	return txs, err
}

// SettleDue flips PENDING entries created before the cutoff to COMPLETED and
// returns them. Settlement never touches the balance: the amount was applied
// when the entry was written.
func (r *repository) SettleDue(ctx context.Context, cutoff time.Time) ([]*Transaction, error) {
	query := `
		UPDATE wallet_transactions
		SET status = 'COMPLETED'
		WHERE status = 'PENDING' AND created_at <= $1
		RETURNING id, user_id, amount, category, status, description, booking_id, reference_id, created_at
	`
	var settled []*Transaction
	err := r.db.SelectContext(ctx, &settled, query, cutoff)
	return settled, err
}
