package stoodio

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Stoodio is a recording studio listing, the marketplace's supply-side venue.
type Stoodio struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	OwnerID    uuid.UUID      `db:"owner_id" json:"owner_id"`
	Name       string         `db:"name" json:"name"`
	Address    string         `db:"address" json:"address"`
	City       string         `db:"city" json:"city"`
	HourlyRate int64          `db:"hourly_rate_cents" json:"hourly_rate_cents"`
	PhotoURL   sql.NullString `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// Room is a bookable space inside a stoodio. A room may override the
// stoodio's hourly rate.
type Room struct {
	ID         uuid.UUID     `db:"id" json:"id"`
	StoodioID  uuid.UUID     `db:"stoodio_id" json:"stoodio_id"`
	Name       string        `db:"name" json:"name"`
	HourlyRate sql.NullInt64 `db:"hourly_rate_cents" json:"hourly_rate_cents,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// Rate returns the effective hourly rate for booking this room.
func (r *Room) Rate(stoodioRate int64) int64 {
	if r.HourlyRate.Valid && r.HourlyRate.Int64 > 0 {
		return r.HourlyRate.Int64
	}
	return stoodioRate
}
