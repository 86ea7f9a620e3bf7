// Package authapi implements the remote authentication API client of
// the IJAA backend: user sign-in and sign-up, admin login, and the
// theme preference endpoint.
//
// Error responses carry the server's human-readable message and are
// surfaced unmodified as *APIError; a 409 on sign-up is additionally
// normalized to auth.ErrAlreadyExists. When constructed with
// WithLogoutSignal, any 401 on a bearer-authenticated call publishes
// the application-wide forced-logout signal.
package authapi
