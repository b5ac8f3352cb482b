package payment

import "errors"

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrAlreadyCompleted = errors.New("payment already completed")
	ErrCheckoutFailed   = errors.New("failed to create checkout session")
)
