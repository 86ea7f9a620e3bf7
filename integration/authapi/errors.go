package authapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidConfig is returned when the client is constructed with an
// unusable configuration.
var ErrInvalidConfig = errors.New("authapi: invalid config")

// APIError carries a non-2xx response. The message is the remote API's
// human-readable text and is surfaced to the caller unmodified so the
// user sees actionable feedback.
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether err is a 401 rejection.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}
