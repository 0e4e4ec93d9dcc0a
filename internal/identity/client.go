package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gidersen/internal/config"

	"github.com/rs/zerolog"
)

// Provider is the remote auth service.
type Provider interface {
	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignUp creates an account. The session is nil when the service
	// requires email confirmation before the first sign-in.
	SignUp(ctx context.Context, email, password string) (*User, *Session, error)

	// Refresh exchanges a refresh token for a new session.
	Refresh(ctx context.Context, refreshToken string) (*Session, error)

	// SignOut revokes the session behind accessToken.
	SignOut(ctx context.Context, accessToken string) error
}

// ErrInvalidCredentials is returned when the service rejects an email and
// password pair or a refresh token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// APIError is a non-2xx response from the auth service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("auth service error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("auth service error %d: %s", e.Status, e.Message)
}

// Unwrap maps rejected credentials onto ErrInvalidCredentials.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "invalid_grant", "invalid_credentials":
		return ErrInvalidCredentials
	}
	return nil
}

type client struct {
	baseURL    string
	anonKey    string
	jwtSecret  string
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger
}

// NewClient creates a GoTrue client for the backend project.
func NewClient(cfg config.BackendConfig, logger zerolog.Logger) Provider {
	timeout := cfg.AuthTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return newClient(cfg, &http.Client{Timeout: timeout}, time.Now, logger)
}

func newClient(cfg config.BackendConfig, httpClient *http.Client, now func() time.Time, logger zerolog.Logger) *client {
	return &client{
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:    cfg.AnonKey,
		jwtSecret:  cfg.JWTSecret,
		httpClient: httpClient,
		now:        now,
		logger:     logger.With().Str("component", "identity-client").Logger(),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         *User  `json:"user"`

	// Present when signup returns the bare user object.
	ID    string `json:"id"`
	Email string `json:"email"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (c *client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}
	return c.sessionFrom(&resp)
}

func (c *client) SignUp(ctx context.Context, email, password string) (*User, *Session, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, "/signup", "", credentials{Email: email, Password: password}, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to sign up: %w", err)
	}

	if resp.AccessToken == "" {
		if resp.ID == "" {
			return nil, nil, fmt.Errorf("failed to sign up: response carries no user")
		}
		return &User{ID: resp.ID, Email: resp.Email}, nil, nil
	}

	session, err := c.sessionFrom(&resp)
	if err != nil {
		return nil, nil, err
	}
	return &User{ID: session.UserID, Email: session.Email}, session, nil
}

func (c *client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var resp tokenResponse
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to refresh session: %w", err)
	}
	return c.sessionFrom(&resp)
}

func (c *client) SignOut(ctx context.Context, accessToken string) error {
	if err := c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// sessionFrom builds a Session, filling gaps in the response from the
// access token claims.
func (c *client) sessionFrom(resp *tokenResponse) (*Session, error) {
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("auth response carries no access token")
	}

	claims, err := ParseAccessToken(resp.AccessToken, c.jwtSecret)
	if err != nil {
		return nil, err
	}

	s := &Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		UserID:       claims.Subject,
		Email:        claims.Email,
	}
	if resp.User != nil {
		if resp.User.ID != "" {
			s.UserID = resp.User.ID
		}
		if resp.User.Email != "" {
			s.Email = resp.User.Email
		}
	}

	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(resp.ExpiresAt, 0)
	case claims.ExpiresAt != nil:
		s.ExpiresAt = claims.ExpiresAt.Time
	case resp.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	}

	if s.UserID == "" {
		return nil, fmt.Errorf("auth response carries no user id")
	}
	return s, nil
}

func (c *client) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	bearer := accessToken
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("auth request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var e errorResponse
	if err := json.Unmarshal(raw, &e); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}

	apiErr.Code = e.ErrorCode
	if apiErr.Code == "" {
		apiErr.Code = e.Error
	}
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Message, e.Error} {
		if m != "" {
			apiErr.Message = m
			break
		}
	}
	return apiErr
}
