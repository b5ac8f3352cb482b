package booking

import (
	"errors"
	"fmt"
)

var (
	ErrBookingNotFound  = errors.New("booking not found")
	ErrRoleCannotBook   = errors.New("this role cannot create bookings")
	ErrNotPayer         = errors.New("only the booking payer can perform this action")
	ErrNotSessionMember = errors.New("user is not part of this booking")
	ErrEngineerRequired = errors.New("engineer_id is required for specific engineer requests")
	ErrNotAnEngineer    = errors.New("requested user is not an engineer")
	ErrNoEngineerBound  = errors.New("booking has no engineer to act on it")
	ErrInvalidDuration  = errors.New("duration must be at least one hour")
)

// InvalidTransitionError reports a state machine guard rejection. Callers
// match it with errors.As and surface From/Attempted to the client instead
// of silently ignoring the action.
type InvalidTransitionError struct {
	From      Status
	Attempted string
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s booking in status %s: %s", e.Attempted, e.From, e.Reason)
}

func invalidTransition(from Status, attempted, reason string) error {
	return &InvalidTransitionError{From: from, Attempted: attempted, Reason: reason}
}
