package session

import "errors"

var (
	// ErrInvalidUserRecord is returned when persisting a user record
	// missing its token, email or user id.
	ErrInvalidUserRecord = errors.New("session: invalid user record")

	// ErrInvalidAdminRecord is returned when persisting an admin record
	// missing its token or admin id, or carrying a role other than ADMIN.
	ErrInvalidAdminRecord = errors.New("session: invalid admin record")
)
