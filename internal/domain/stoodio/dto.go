package stoodio

// CreateStoodioRequest registers a new listing.
type CreateStoodioRequest struct {
	Name            string `json:"name" validate:"required,min=2,max=120"`
	Address         string `json:"address" validate:"required,max=250"`
	City            string `json:"city" validate:"required,max=80"`
	HourlyRateCents int64  `json:"hourly_rate_cents" validate:"required,gte=100"`
	PhotoURL        string `json:"photo_url"`
}

// CreateRoomRequest adds a room to a listing.
type CreateRoomRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=120"`
	HourlyRateCents int64  `json:"hourly_rate_cents" validate:"gte=0"`
}
