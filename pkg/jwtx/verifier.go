package jwtx

import "errors"

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// Signer mints a signed token from a claim set.
type Signer interface {
	Issue(Claims) (string, error)
}

var (
	ErrMalformed        = errors.New("jwtx: malformed token")
	ErrAlgMismatch      = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSignature = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrWeakSecret   = errors.New("jwtx: secret too short")
)
