package auth

import "errors"

var (
	// ErrInvalidAdminRole is returned when the admin login endpoint
	// answered successfully but the returned role is not exactly ADMIN.
	// The sign-in is treated as a hard failure and nothing is persisted.
	ErrInvalidAdminRole = errors.New("auth: invalid admin role")

	// ErrAlreadyExists is returned by sign-up when the remote API
	// reports the account is already registered.
	ErrAlreadyExists = errors.New("auth: account already exists")
)
