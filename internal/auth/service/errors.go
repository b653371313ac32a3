package service

import (
	"errors"

	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidToken       = errors.New("invalid_token")
	ErrNotFound           = errors.New("not_found")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidEmail       = errors.New("invalid_email")

	// ErrPolicyViolation matches every *cryptox.PolicyError.
	ErrPolicyViolation = cryptox.ErrPolicyViolation
)

func policyError(reason string) error {
	return &cryptox.PolicyError{Reason: reason}
}
