package payment

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Purpose of a checkout: topping up the wallet or paying for a tier.
type Purpose string

const (
	PurposeAddFunds     Purpose = "ADD_FUNDS"
	PurposeSubscription Purpose = "SUBSCRIPTION"
)

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusCompleted Status = "COMPLETED"
	StatusExpired   Status = "EXPIRED"
)

// Payment tracks one Stripe checkout session from creation to webhook
// completion. The session id is the idempotency anchor: the webhook can
// fire more than once, the payment completes once.
type Payment struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	Purpose           Purpose        `db:"purpose" json:"purpose"`
	AmountCents       int64          `db:"amount_cents" json:"amount_cents"`
	Tier              sql.NullString `db:"tier" json:"tier,omitempty"`
	Status            Status         `db:"status" json:"status"`
	CheckoutSessionID string         `db:"checkout_session_id" json:"-"`
	CheckoutURL       string         `db:"-" json:"checkout_url,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}
