package booking

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
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*Booking, error)

	// AcceptOpen binds an engineer to an open PENDING booking. The WHERE
	// clause is the race arbiter: the first engineer whose UPDATE matches
	// a row wins, everyone else gets false back.
	AcceptOpen(ctx context.Context, bookingID, engineerID uuid.UUID) (bool, error)

	// AcceptRequested confirms a PENDING_APPROVAL booking, but only for
	// the engineer it was addressed to.
	AcceptRequested(ctx context.Context, bookingID, engineerID uuid.UUID) (bool, error)

	// Deny puts a PENDING_APPROVAL booking back on the open board and
	// clears the requested engineer.
	Deny(ctx context.Context, bookingID, engineerID uuid.UUID) (bool, error)

	// TransitionStatus moves the booking to the target status if its
	// current status is one of from, returning the status the row held at
	// the moment of the update. Returns false when no row matched.
	TransitionStatus(ctx context.Context, bookingID uuid.UUID, from []Status, to Status) (Status, bool, error)

	AddTip(ctx context.Context, bookingID uuid.UUID, amountCents int64) error
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (
			id, stoodio_id, room_id, engineer_id, requested_engineer_id, producer_id,
			booked_by_id, booked_by_role, start_time, duration_hours, status, request_type,
			stoodio_cost_cents, engineer_fee_cents, service_fee_cents, pull_up_fee_cents,
			total_cost_cents, engineer_pay_rate_cents, tip_cents, mixing_details,
			instrumentals_purchased, created_at, updated_at
		) VALUES (
			:id, :stoodio_id, :room_id, :engineer_id, :requested_engineer_id, :producer_id,
			:booked_by_id, :booked_by_role, :start_time, :duration_hours, :status, :request_type,
			:stoodio_cost_cents, :engineer_fee_cents, :service_fee_cents, :pull_up_fee_cents,
			:total_cost_cents, :engineer_pay_rate_cents, :tip_cents, :mixing_details,
			:instrumentals_purchased, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bookings WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &b, nil
}

func (r *postgresRepository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Booking, error) {
	query := `
		SELECT * FROM bookings
		WHERE booked_by_id = $1 OR engineer_id = $1 OR producer_id = $1
		   OR stoodio_id IN (SELECT id FROM stoodioz WHERE owner_id = $1)
		ORDER BY start_time DESC
		LIMIT $2 OFFSET $3`

	bookings := make([]*Booking, 0)
	if err := r.db.SelectContext(ctx, &bookings, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *postgresRepository) ListOpen(ctx context.Context, limit, offset int) ([]*Booking, error) {
	query := `
		SELECT * FROM bookings
		WHERE status = $1
		ORDER BY start_time ASC
		LIMIT $2 OFFSET $3`

	bookings := make([]*Booking, 0)
	if err := r.db.SelectContext(ctx, &bookings, query, StatusPending, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list open bookings: %w", err)
	}
	return bookings, nil
}

func (r *postgresRepository) AcceptOpen(ctx context.Context, bookingID, engineerID uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, engineer_id = $2, updated_at = $3
		WHERE id = $4 AND status = $5`

	res, err := r.db.ExecContext(ctx, query, StatusConfirmed, engineerID, time.Now(), bookingID, StatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to accept booking: %w", err)
	}
	return rowsAffected(res), nil
}

func (r *postgresRepository) AcceptRequested(ctx context.Context, bookingID, engineerID uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, engineer_id = $2, updated_at = $3
		WHERE id = $4 AND status = $5 AND requested_engineer_id = $2`

	res, err := r.db.ExecContext(ctx, query, StatusConfirmed, engineerID, time.Now(), bookingID, StatusPendingApproval)
	if err != nil {
		return false, fmt.Errorf("failed to accept booking: %w", err)
	}
	return rowsAffected(res), nil
}

func (r *postgresRepository) Deny(ctx context.Context, bookingID, engineerID uuid.UUID) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, requested_engineer_id = NULL, updated_at = $2
		WHERE id = $3 AND status = $4 AND requested_engineer_id = $5`

	res, err := r.db.ExecContext(ctx, query, StatusPending, time.Now(), bookingID, StatusPendingApproval, engineerID)
	if err != nil {
		return false, fmt.Errorf("failed to deny booking: %w", err)
	}
	return rowsAffected(res), nil
}

func (r *postgresRepository) TransitionStatus(ctx context.Context, bookingID uuid.UUID, from []Status, to Status) (Status, bool, error) {
	query, args, err := sqlx.In(`
		UPDATE bookings b
		SET status = ?, updated_at = ?
		FROM (SELECT id, status FROM bookings WHERE id = ? FOR UPDATE) prev
		WHERE b.id = prev.id AND prev.status IN (?)
		RETURNING prev.status`,
		to, time.Now(), bookingID, from,
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to build transition query: %w", err)
	}

	var prior Status
	err = r.db.QueryRowxContext(ctx, r.db.Rebind(query), args...).Scan(&prior)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to transition booking: %w", err)
	}
	return prior, true, nil
}

func (r *postgresRepository) AddTip(ctx context.Context, bookingID uuid.UUID, amountCents int64) error {
	query := `UPDATE bookings SET tip_cents = tip_cents + $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, amountCents, time.Now(), bookingID); err != nil {
		return fmt.Errorf("failed to record tip: %w", err)
	}
	return nil
}

func rowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
