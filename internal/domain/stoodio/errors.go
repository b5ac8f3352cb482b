package stoodio

import "errors"

var (
	ErrStoodioNotFound = errors.New("stoodio not found")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomMismatch    = errors.New("room does not belong to this stoodio")
	ErrNotOwner        = errors.New("user does not own this stoodio")
)
