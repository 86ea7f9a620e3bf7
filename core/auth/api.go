package auth

import "context"

// UserAuthResult is the successful response of the user sign-in and
// sign-up endpoints.
type UserAuthResult struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

// AdminAuthResult is the successful response of the admin login
// endpoint. The role is not trusted blindly; the coordinator enforces
// the exact-match role gate on top of it.
type AdminAuthResult struct {
	Token   string `json:"token"`
	AdminID string `json:"adminId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Active  bool   `json:"active"`
}

// SignUpParams is the registration payload forwarded to the remote
// API.
type SignUpParams struct {
	Email    string `json:"username"`
	Password string `json:"password"`
}

// Client is the remote authentication API the coordinator drives. The
// transport implementation lives in integration/authapi; tests inject
// fakes.
type Client interface {
	SignIn(ctx context.Context, email, password string) (UserAuthResult, error)
	SignUp(ctx context.Context, params SignUpParams) (UserAuthResult, error)
	AdminSignIn(ctx context.Context, email, password string) (AdminAuthResult, error)
}

// Logout is the application-wide forced-logout signal, raised by any
// API client that observes an authentication rejection on an
// authenticated call.
type Logout struct {
	Reason string
}

// ReasonTokenExpired is the logout reason set when a credential is
// rejected by the remote API.
const ReasonTokenExpired = "token_expired"

// Notifier receives user-visible confirmations. It is a boundary
// effect, not part of the session contract; the default discards
// everything.
type Notifier interface {
	// Success reports a completed action, such as signing out.
	Success(message string)
	// Warning reports a forced transition, such as an expired session.
	Warning(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Warning(string) {}
