package user

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailAlreadyExists   = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNotAnEngineerAccount = errors.New("account is not an engineer")
	ErrInvalidRate          = errors.New("hourly rate must be greater than zero")
)
