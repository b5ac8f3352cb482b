package chat

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a message thread. Session conversations are created by
// the booking flow and carry the booking id; direct conversations link two
// users and have no booking.
type Conversation struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	BookingID uuid.NullUUID `db:"booking_id" json:"booking_id,omitempty"`
	Title     string        `db:"title" json:"title"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`

	Participants []uuid.UUID `db:"-" json:"participants,omitempty"`
}

type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	ConversationID uuid.UUID `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Body           string    `db:"body" json:"body"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
