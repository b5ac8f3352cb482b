package booking

import (
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	StoodioID              uuid.UUID  `json:"stoodio_id" validate:"required"`
	RoomID                 uuid.UUID  `json:"room_id" validate:"required"`
	StartTime              time.Time  `json:"start_time" validate:"required"`
	DurationHours          int        `json:"duration_hours" validate:"required,gte=1,lte=24"`
	RequestType            string     `json:"request_type" validate:"required,request_type"`
	EngineerID             *uuid.UUID `json:"engineer_id,omitempty"`
	ProducerID             *uuid.UUID `json:"producer_id,omitempty"`
	PullUpFeeCents         int64      `json:"pull_up_fee_cents" validate:"gte=0"`
	MixingDetails          string     `json:"mixing_details"`
	InstrumentalsPurchased bool       `json:"instrumentals_purchased"`
}

type TipRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

type ListQuery struct {
	Limit  int
	Offset int
}
