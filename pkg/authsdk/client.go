package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API paths.
const (
	PathRegister       = "/api/auth/registro"
	PathLogin          = "/api/auth/login"
	PathRefresh        = "/api/auth/refresh"
	PathValidate       = "/api/auth/validate"
	PathForgotPassword = "/api/auth/esqueceu-senha"
	PathResetPassword  = "/api/auth/resetar-senha"
	PathChangePassword = "/api/auth/alterar-senha"
	PathMe             = "/api/auth/me"
	PathLogout         = "/api/auth/logout"
)

// Client talks to the public endpoints and creates Sessions.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a lawyer account.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.postJSON(ctx, PathRegister, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginRaw performs the login call and returns the response as is.
func (c *Client) LoginRaw(ctx context.Context, email, password string) (*LoginResponse, error) {
	var out LoginResponse
	req := LoginRequest{Email: email, Password: password}
	if err := c.postJSON(ctx, PathLogin, req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and returns a Session holding the token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.LoginRaw(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp.TokenResponse), nil
}

// Refresh exchanges a refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.postJSON(ctx, PathRefresh, RefreshRequest{RefreshToken: refreshToken}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate asks the server whether token is a live access token.
func (c *Client) Validate(ctx context.Context, token string) (*ValidationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, PathValidate+"?token="+url.QueryEscape(token), nil, nil)
	if err != nil {
		return nil, err
	}

	var out ValidationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ForgotPassword requests a reset token for email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, PathForgotPassword, ForgotPasswordRequest{Email: email}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResetPassword sets a new password with a reset token.
func (c *Client) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := c.postJSON(ctx, PathResetPassword, req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// NewSession wraps tokens obtained elsewhere.
func (c *Client) NewSession(tokens TokenResponse) *Session {
	return newSession(c, tokens)
}

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/livez")
}

// GetReadiness checks if the service is ready.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	return c.health(ctx, "/readyz")
}

func (c *Client) health(ctx context.Context, path string) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}
