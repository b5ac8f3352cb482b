package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Role represents user role in the system (matches user_role enum)
type Role string

const (
	RoleArtist   Role = "artist"
	RoleEngineer Role = "engineer"
	RoleProducer Role = "producer"
	RoleStoodio  Role = "stoodio"
)

// User represents a user account (matches users table)
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	DisplayName  string    `db:"display_name" json:"display_name"`

	// Engineer fields. Hourly rate is cents per hour; availability powers
	// FIND_AVAILABLE auto-assignment.
	IsAvailable bool          `db:"is_available" json:"is_available"`
	HourlyRate  sql.NullInt64 `db:"hourly_rate_cents" json:"hourly_rate_cents"`

	LastLoginAt sql.NullTime `db:"last_login_at" json:"last_login_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsArtist returns true if user is an artist
func (u *User) IsArtist() bool {
	return u.Role == RoleArtist
}

// IsEngineer returns true if user is an engineer
func (u *User) IsEngineer() bool {
	return u.Role == RoleEngineer
}

// IsProducer returns true if user is a producer
func (u *User) IsProducer() bool {
	return u.Role == RoleProducer
}

// IsStoodioOwner returns true if user owns a stoodio listing
func (u *User) IsStoodioOwner() bool {
	return u.Role == RoleStoodio
}

// PayRate returns the engineer's hourly rate or the given fallback.
func (u *User) PayRate(fallback int64) int64 {
	if u.HourlyRate.Valid && u.HourlyRate.Int64 > 0 {
		return u.HourlyRate.Int64
	}
	return fallback
}
