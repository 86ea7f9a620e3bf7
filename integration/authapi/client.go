package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mesahal/ijaa-client/core/auth"
	"github.com/mesahal/ijaa-client/core/signal"
	"github.com/mesahal/ijaa-client/pkg/logger"
)

// Client talks to the remote IJAA authentication API. It implements
// auth.Client for the coordinator and additionally serves the
// preference endpoints consumed by the theme module.
//
// Bearer-authenticated calls that come back 401 publish the
// forced-logout signal when a bus is configured; credential rejections
// on the sign-in endpoints themselves do not, since a wrong password
// is not an expired session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logout     *signal.Bus[auth.Logout]
	log        *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client, mainly for
// tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogoutSignal publishes auth.Logout on the bus whenever an
// authenticated call is rejected with 401.
func WithLogoutSignal(bus *signal.Bus[auth.Logout]) ClientOption {
	return func(c *Client) {
		c.logout = bus
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates an API client from the given configuration.
func New(cfg Config, opts ...ClientOption) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn implements auth.Client.
func (c *Client) SignIn(ctx context.Context, email, password string) (auth.UserAuthResult, error) {
	var res auth.UserAuthResult
	err := c.post(ctx, "/api/v1/user/signin", credentialsRequest{Username: email, Password: password}, &res)
	return res, err
}

// SignUp implements auth.Client. A 409 from the registration endpoint
// is normalized to auth.ErrAlreadyExists, with the remote message
// attached for display.
func (c *Client) SignUp(ctx context.Context, params auth.SignUpParams) (auth.UserAuthResult, error) {
	var res auth.UserAuthResult
	err := c.post(ctx, "/api/v1/user/signup", credentialsRequest{Username: params.Email, Password: params.Password}, &res)
	if IsStatus(err, http.StatusConflict) {
		return res, errors.Join(auth.ErrAlreadyExists, err)
	}
	return res, err
}

// AdminSignIn implements auth.Client. Role gating happens in the
// coordinator, not here: the transport reports what the server said.
func (c *Client) AdminSignIn(ctx context.Context, email, password string) (auth.AdminAuthResult, error) {
	var res auth.AdminAuthResult
	err := c.post(ctx, "/api/v1/admin/login", adminLoginRequest{Email: email, Password: password}, &res)
	return res, err
}

type themeResponse struct {
	Theme string `json:"theme"`
}

// ThemePreference fetches the signed-in principal's remote theme
// preference.
func (c *Client) ThemePreference(ctx context.Context, token string) (string, error) {
	var res themeResponse
	if err := c.get(ctx, "/api/v1/user/theme", token, &res); err != nil {
		return "", err
	}
	return res.Theme, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, "", out)
}

func (c *Client) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	return c.do(req, token, out)
}

// do executes the request and decodes either the success payload or
// the remote error message. A 401 on a bearer-authenticated request
// means the credential is no longer accepted: the forced-logout signal
// goes out before the error is returned.
func (c *Client) do(req *http.Request, token string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && token != "" && c.logout != nil {
			c.log.Info("credential rejected, raising logout signal", logger.Reason(auth.ReasonTokenExpired))
			c.logout.Publish(req.Context(), auth.Logout{Reason: auth.ReasonTokenExpired})
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type errorResponse struct {
	Message string `json:"message"`
}

// readErrorMessage extracts the human-readable message from an error
// body. Non-JSON bodies are passed through as-is, truncated to keep
// toasts displayable.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(raw))
}
