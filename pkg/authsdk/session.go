package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// refreshMargin renews the access token this long before it expires.
const refreshMargin = 30 * time.Second

// Session is an authenticated caller. Its methods refresh the access token
// when it is about to expire.
type Session struct {
	client *Client

	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	expiresAt    time.Time
}

func newSession(client *Client, tokens TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokens.AccessToken,
		refreshToken: tokens.RefreshToken,
		expiresAt:    expiry(tokens.ExpiresIn),
	}
}

func expiry(expiresIn int64) time.Time {
	return time.Now().Add(time.Duration(expiresIn)*time.Second - refreshMargin)
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

// RefreshToken returns the refresh token.
func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Me returns the authenticated principal.
func (s *Session) Me(ctx context.Context) (*UserInfoResponse, error) {
	var out UserInfoResponse
	if err := s.do(ctx, http.MethodGet, PathMe, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the caller's password.
func (s *Session) ChangePassword(ctx context.Context, req ChangePasswordRequest) (*MessageResponse, error) {
	var out MessageResponse
	if err := s.do(ctx, http.MethodPost, PathChangePassword, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout tells the server the session is over. Tokens are stateless, so the
// caller must also discard them.
func (s *Session) Logout(ctx context.Context) (*MessageResponse, error) {
	var out MessageResponse
	if err := s.do(ctx, http.MethodPost, PathLogout, nil, &out); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.accessToken, s.refreshToken = "", ""
	s.mu.Unlock()
	return &out, nil
}

func (s *Session) do(ctx context.Context, method, path string, in, out any) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}

	var body *bytes.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	resp, err := s.client.doRequest(ctx, method, path, body, jsonHeaders(token))
	if err != nil {
		return err
	}
	return decodeJSON(resp, out, http.StatusOK)
}

// getValidToken returns a valid access token, refreshing it if needed.
func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) && s.accessToken != "" {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) && s.accessToken != "" {
		return s.accessToken, nil
	}

	if s.refreshToken == "" {
		return "", fmt.Errorf("access token expired and no refresh token available")
	}

	tokens, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		s.refreshToken = tokens.RefreshToken
	}
	s.expiresAt = expiry(tokens.ExpiresIn)

	return s.accessToken, nil
}
