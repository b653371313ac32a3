package jwtx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the smallest HMAC secret accepted, matching the HS256
// output size.
const MinSecretLength = 32

// Codec signs and verifies HS256 tokens with a shared secret. It holds no
// mutable state and is safe for concurrent use.
type Codec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

var (
	_ Signer   = (*Codec)(nil)
	_ Verifier = (*Codec)(nil)
)

// Option customises a Codec.
type Option func(*Codec)

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a codec for the given secret. When issuer is non-empty,
// Verify rejects tokens minted by anyone else.
func NewCodec(secret []byte, issuer string, opts ...Option) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrWeakSecret, MinSecretLength, len(secret))
	}

	c := &Codec{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issuer returns the issuer this codec stamps and expects.
func (c *Codec) Issuer() string { return c.issuer }

// Now returns the codec's notion of the current time.
func (c *Codec) Now() time.Time { return c.now() }

// Issue serialises and signs the claims.
func (c *Codec) Issue(claims Claims) (string, error) {
	if err := claims.validateShape(); err != nil {
		return "", err
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks the signature (constant time, via hmac.Equal), the issuer
// and expiry, and returns the embedded claims.
func (c *Codec) Verify(token string) (Claims, error) {
	token = strings.TrimSpace(token)

	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Claims{}, ErrMalformed
	}

	// A signature segment that is not canonical base64url cannot be the one
	// we produced.
	if parts[2] == "" {
		return Claims{}, ErrInvalidSignature
	}
	if _, err := base64.RawURLEncoding.Strict().DecodeString(parts[2]); err != nil {
		return Claims{}, ErrInvalidSignature
	}

	var claims Claims
	if _, err := c.parser().ParseWithClaims(token, &claims, c.keyFunc); err != nil {
		return Claims{}, mapParseError(err)
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.validateShape(); err != nil {
		return Claims{}, err
	}

	claims.IssuedAt = jwt.NewNumericDate(claims.IssuedAt.UTC())
	claims.ExpiresAt = jwt.NewNumericDate(claims.ExpiresAt.UTC())
	return claims, nil
}

// ExtractSubject verifies the token and returns its subject (the email).
func (c *Codec) ExtractSubject(token string) (string, error) {
	claims, err := c.Verify(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

func (c *Codec) parser() *jwt.Parser {
	return jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(c.now),
	)
}

func (c *Codec) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrAlgMismatch
	}
	return c.secret, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgMismatch):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return ErrInvalidClaim
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
