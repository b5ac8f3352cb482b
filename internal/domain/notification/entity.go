package notification

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type represents notification type
type Type string

const (
	TypeBookingRequest   Type = "booking_request"   // Engineer: new job to accept or deny
	TypeBookingConfirmed Type = "booking_confirmed" // Payer: session is on
	TypeBookingDenied    Type = "booking_denied"    // Payer: engineer passed, search continues
	TypeBookingCancelled Type = "booking_cancelled" // Other party: session called off
	TypeSessionCompleted Type = "session_completed" // Payer: session ended, payouts issued
	TypePayoutSettled    Type = "payout_settled"    // Payee: pending payout completed
	TypeTipReceived      Type = "tip_received"      // Engineer: artist tipped
	TypeNewMessage       Type = "new_message"       // Both: new chat message
)

// Notification represents a user notification
type Notification struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	UserID    uuid.UUID       `db:"user_id" json:"user_id"`
	Type      Type            `db:"type" json:"type"`
	Title     string          `db:"title" json:"title"`
	Body      sql.NullString  `db:"body" json:"body,omitempty"`
	Data      json.RawMessage `db:"data" json:"data,omitempty"`
	IsRead    bool            `db:"is_read" json:"is_read"`
	ReadAt    sql.NullTime    `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NotificationData deep-links a notification to the entity it is about
type NotificationData struct {
	BookingID      *uuid.UUID `json:"booking_id,omitempty"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	MessageID      *uuid.UUID `json:"message_id,omitempty"`
	TransactionID  *uuid.UUID `json:"transaction_id,omitempty"`
}

// SetData encodes data to JSON
func (n *Notification) SetData(data *NotificationData) {
	if data != nil {
		n.Data, _ = json.Marshal(data)
	}
}

// GetData decodes data from JSON
func (n *Notification) GetData() *NotificationData {
	if n.Data == nil {
		return &NotificationData{}
	}
	var data NotificationData
	_ = json.Unmarshal(n.Data, &data)
	return &data
}
