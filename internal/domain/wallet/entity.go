package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a ledger entry.
type Category string

const (
	CategorySessionPayment Category = "SESSION_PAYMENT"
	CategorySessionPayout  Category = "SESSION_PAYOUT"
	CategoryRefund         Category = "REFUND"
	CategoryTipPayment     Category = "TIP_PAYMENT"
	CategoryTipPayout      Category = "TIP_PAYOUT"
	CategoryAddFunds       Category = "ADD_FUNDS"
	CategoryWithdrawal     Category = "WITHDRAWAL"
)

// Status of a ledger entry. Payout entries start PENDING and are flipped
// to COMPLETED by the settlement job; nothing else about an entry ever changes.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// Wallet is a cached running total over the transaction log. Balance and
// log append move together in one database transaction.
type Wallet struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only ledger row. Amount is signed cents:
// negative = debit, positive = credit.
type Transaction struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	UserID      uuid.UUID     `db:"user_id" json:"user_id"`
	Amount      int64         `db:"amount" json:"amount"`
	Category    Category      `db:"category" json:"category"`
	Status      Status        `db:"status" json:"status"`
	Description string        `db:"description" json:"description"`
	BookingID   uuid.NullUUID `db:"booking_id" json:"booking_id,omitempty"`
	ReferenceID *string       `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}
