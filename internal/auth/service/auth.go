package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/jwtx"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
)

const TokenTypeBearer = "Bearer"

// AuthService issues and checks session tokens. It never writes to the
// credential store; auditing is left to the caller.
type AuthService struct {
	Codec      *jwtx.Codec
	Principals store.Principals
	Hasher     *cryptox.PasswordHasher
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	decoyOnce sync.Once
	decoy     string
}

// decoyPassword is hashed once so that rejected logins without a usable
// hash still pay for one Verify.
const decoyPassword = "smartlegal-login-decoy"

// LoginResult is a freshly minted token pair and the principal it belongs to.
type LoginResult struct {
	Tokens    domain.TokenPair
	Principal domain.Principal
}

// Login checks the email and password. An unknown email, an inactive
// principal and a wrong password all fail with ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := slogx.FromContext(ctx)

	p, err := s.Principals.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.verifyDecoy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !p.Active {
		s.verifyDecoy(password)
	}
	if !p.Active || !s.Hasher.Verify(password, p.PasswordHash) {
		l.Info("login rejected", slog.Int64("user_id", p.ID), slog.Bool("active", p.Active))
		return nil, ErrInvalidCredentials
	}

	if s.Hasher.NeedsRehash(p.PasswordHash) {
		l.Info("password hash uses legacy parameters", slog.Int64("user_id", p.ID))
	}

	now := s.Codec.Now()
	access, err := s.issueAccess(p, now)
	if err != nil {
		return nil, err
	}
	refresh, err := s.Codec.Issue(jwtx.NewRefreshClaims(p.Email, p.ID, s.Codec.Issuer(), s.refreshTTL(), now))
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Tokens: domain.TokenPair{
			AccessToken:  access,
			RefreshToken: refresh,
			TokenType:    TokenTypeBearer,
			ExpiresIn:    s.accessTTL(),
		},
		Principal: p,
	}, nil
}

// Refresh mints a new access token from a refresh token. The refresh token
// itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.Codec.Verify(refreshToken)
	if err != nil {
		slogx.FromContext(ctx).Debug("refresh token rejected", slog.Any("error", err))
		return domain.TokenPair{}, ErrInvalidToken
	}
	if claims.Type != jwtx.KindRefresh {
		return domain.TokenPair{}, ErrInvalidToken
	}

	p, err := s.activePrincipal(ctx, claims.Subject)
	if err != nil {
		return domain.TokenPair{}, err
	}

	access, err := s.issueAccess(p, s.Codec.Now())
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    s.accessTTL(),
	}, nil
}

// Validate reports whether token is a live access token of a principal that
// still exists and is active. The result carries the principal's current
// id, email and role. It never fails; an invalid token yields a zero
// Validation.
func (s *AuthService) Validate(ctx context.Context, token string) domain.Validation {
	claims, err := s.Codec.Verify(token)
	if err != nil {
		slogx.FromContext(ctx).Debug("token validation failed", slog.Any("error", err))
		return domain.Validation{}
	}
	if claims.Type != jwtx.KindAccess {
		return domain.Validation{}
	}

	p, err := s.activePrincipal(ctx, claims.Subject)
	if err != nil {
		slogx.FromContext(ctx).Debug("token principal not resolvable", slog.Any("error", err))
		return domain.Validation{}
	}

	return domain.Validation{
		Valid:  true,
		UserID: p.ID,
		Email:  p.Email,
		Role:   p.Role,
	}
}

// Resolve maps verified access-token claims onto the current identity of an
// active principal.
func (s *AuthService) Resolve(ctx context.Context, claims jwtx.Claims) (domain.Identity, error) {
	if claims.Type != jwtx.KindAccess {
		return domain.Identity{}, ErrInvalidToken
	}
	p, err := s.activePrincipal(ctx, claims.Subject)
	if err != nil {
		return domain.Identity{}, err
	}
	return p.Identity(), nil
}

func (s *AuthService) activePrincipal(ctx context.Context, email string) (domain.Principal, error) {
	p, err := s.Principals.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Principal{}, ErrInvalidToken
		}
		return domain.Principal{}, err
	}
	if !p.Active {
		return domain.Principal{}, ErrInvalidToken
	}
	return p, nil
}

// verifyDecoy runs a password check whose result is discarded.
func (s *AuthService) verifyDecoy(password string) {
	s.decoyOnce.Do(func() {
		s.decoy, _ = s.Hasher.Hash(decoyPassword)
	})
	if s.decoy != "" {
		_ = s.Hasher.Verify(password, s.decoy)
	}
}

func (s *AuthService) issueAccess(p domain.Principal, now time.Time) (string, error) {
	return s.Codec.Issue(jwtx.NewAccessClaims(p.Email, p.ID, p.Role, s.Codec.Issuer(), s.accessTTL(), now))
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return jwtx.DefaultAccessTokenTTL
	}
	return s.AccessTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL <= 0 {
		return jwtx.DefaultRefreshTokenTTL
	}
	return s.RefreshTTL
}
