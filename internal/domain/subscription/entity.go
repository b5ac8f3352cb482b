package subscription

import (
	"time"

	"github.com/google/uuid"
)

// Tier represents an engineer subscription tier
type Tier string

const (
	TierFree Tier = "FREE"
	TierPlus Tier = "PLUS"
	TierPro  Tier = "PRO"
)

// MonthlyPriceCents returns the tier's monthly price.
func (t Tier) MonthlyPriceCents() int64 {
	switch t {
	case TierPlus:
		return 1999
	case TierPro:
		return 4999
	default:
		return 0
	}
}

// CanAcceptSessions reports whether the tier allows accepting booking jobs.
// FREE engineers browse but cannot take work.
func (t Tier) CanAcceptSessions() bool {
	return t == TierPlus || t == TierPro
}

// Subscription represents an engineer's active tier
type Subscription struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Tier      Tier      `db:"tier" json:"tier"`
	StartedAt time.Time `db:"started_at" json:"started_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
