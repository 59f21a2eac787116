package auth

import "errors"

var (
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")

	// ErrInvalidCredentials covers both unknown email and bad password so the
	// login endpoint never reveals which one failed.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
