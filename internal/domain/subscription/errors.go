package subscription

import "errors"

var (
	ErrUnknownTier      = errors.New("unknown subscription tier")
	ErrAlreadyOnTier    = errors.New("already subscribed to this tier")
	ErrUpgradeRequired  = errors.New("a paid subscription tier is required for this action")
)
