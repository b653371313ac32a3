package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Access tokens are hours-scale, refresh tokens days-scale.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Kind discriminates access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "ACCESS"
	KindRefresh Kind = "REFRESH"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// Claims is the claim set carried by every token we mint. Subject is the
// principal's email.
type Claims struct {
	jwt.RegisteredClaims

	UserID int64  `json:"userId"`
	Role   string `json:"role,omitempty"`
	Type   Kind   `json:"type"`
}

// NewAccessClaims builds the claims of an access token.
func NewAccessClaims(email string, userID int64, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(email, issuer, ttl, now),
		UserID:           userID,
		Role:             role,
		Type:             KindAccess,
	}
}

// NewRefreshClaims builds the claims of a refresh token. Refresh tokens carry
// no role; it is re-resolved from the credential store on every refresh.
func NewRefreshClaims(email string, userID int64, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: registered(email, issuer, ttl, now),
		UserID:           userID,
		Type:             KindRefresh,
	}
}

func registered(subject, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	// NumericDate has second precision; truncate so a round trip is exact.
	now = now.UTC().Truncate(time.Second)
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// validateShape enforces the invariants every minted claim set holds.
func (c *Claims) validateShape() error {
	if c.Subject == "" || !c.Type.Valid() {
		return ErrInvalidClaim
	}
	if c.IssuedAt == nil || c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if !c.ExpiresAt.After(c.IssuedAt.Time) {
		return ErrInvalidClaim
	}
	return nil
}
