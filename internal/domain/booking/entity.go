package booking

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status of a booking. PENDING is an open job any engineer can take;
// PENDING_APPROVAL waits on one specific engineer. COMPLETED and CANCELLED
// are terminal. A denied PENDING_APPROVAL booking falls back to PENDING,
// it is not a dead end.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusConfirmed       Status = "CONFIRMED"
	StatusCompleted       Status = "COMPLETED"
	StatusCancelled       Status = "CANCELLED"
)

// RequestType controls how the engineer is resolved.
type RequestType string

const (
	RequestFindAvailable    RequestType = "FIND_AVAILABLE"
	RequestSpecificEngineer RequestType = "SPECIFIC_ENGINEER"
	RequestBringYourOwn     RequestType = "BRING_YOUR_OWN"
)

// Booking is a reserved session. Rows are never deleted; cancellation is a
// status change.
type Booking struct {
	ID        uuid.UUID `db:"id" json:"id"`
	StoodioID uuid.UUID `db:"stoodio_id" json:"stoodio_id"`
	RoomID    uuid.UUID `db:"room_id" json:"room_id"`

	// EngineerID stays null until an engineer is bound. A CONFIRMED
	// booking has an engineer unless it is bring-your-own.
	EngineerID          uuid.NullUUID `db:"engineer_id" json:"engineer_id,omitempty"`
	RequestedEngineerID uuid.NullUUID `db:"requested_engineer_id" json:"requested_engineer_id,omitempty"`
	ProducerID          uuid.NullUUID `db:"producer_id" json:"producer_id,omitempty"`

	BookedByID   uuid.UUID `db:"booked_by_id" json:"booked_by_id"`
	BookedByRole string    `db:"booked_by_role" json:"booked_by_role"`

	StartTime     time.Time `db:"start_time" json:"start_time"`
	DurationHours int       `db:"duration_hours" json:"duration_hours"`

	Status      Status      `db:"status" json:"status"`
	RequestType RequestType `db:"request_type" json:"request_type"`

	// Price breakdown in cents, fixed at creation.
	StoodioCost     int64 `db:"stoodio_cost_cents" json:"stoodio_cost_cents"`
	EngineerFee     int64 `db:"engineer_fee_cents" json:"engineer_fee_cents"`
	ServiceFee      int64 `db:"service_fee_cents" json:"service_fee_cents"`
	PullUpFee       int64 `db:"pull_up_fee_cents" json:"pull_up_fee_cents"`
	TotalCost       int64 `db:"total_cost_cents" json:"total_cost_cents"`
	EngineerPayRate int64 `db:"engineer_pay_rate_cents" json:"engineer_pay_rate_cents"`

	TipCents               int64          `db:"tip_cents" json:"tip_cents"`
	MixingDetails          sql.NullString `db:"mixing_details" json:"mixing_details,omitempty"`
	InstrumentalsPurchased bool           `db:"instrumentals_purchased" json:"instrumentals_purchased"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether no further transitions are legal.
func (b *Booking) IsTerminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// RefundPercent is the cancellation refund step function over lead time:
// more than 48 hours out refunds everything, more than 24 half, anything
// closer nothing.
func RefundPercent(untilStart time.Duration) int {
	switch {
	case untilStart > 48*time.Hour:
		return 100
	case untilStart > 24*time.Hour:
		return 50
	default:
		return 0
	}
}

// RefundAmount returns the cents refunded when cancelling at the given
// lead time.
func (b *Booking) RefundAmount(untilStart time.Duration) int64 {
	return b.TotalCost * int64(RefundPercent(untilStart)) / 100
}
