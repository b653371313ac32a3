package cryptox

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrPolicyViolation is wrapped by every PolicyError.
var ErrPolicyViolation = errors.New("password policy violation")

// PolicyError describes which password rule failed.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return "password policy violation: " + e.Reason }

func (e *PolicyError) Unwrap() error { return ErrPolicyViolation }

// PasswordPolicy is a set of password rules. A zero MaxLen means unbounded.
type PasswordPolicy struct {
	MinLen        int
	MaxLen        int
	RequireLetter bool
	RequireDigit  bool
}

var (
	// CreationPolicy applies when an account is registered.
	CreationPolicy = PasswordPolicy{MinLen: 6, MaxLen: 100}

	// ChangePolicy applies to password change and reset.
	ChangePolicy = PasswordPolicy{MinLen: 8, RequireLetter: true, RequireDigit: true}
)

// Validate checks password against the policy. Lengths count runes.
func (p PasswordPolicy) Validate(password string) error {
	if strings.TrimSpace(password) == "" {
		return &PolicyError{Reason: "password is required"}
	}

	n := utf8.RuneCountInString(password)
	if n < p.MinLen {
		return &PolicyError{Reason: fmt.Sprintf("password must be at least %d characters", p.MinLen)}
	}
	if p.MaxLen > 0 && n > p.MaxLen {
		return &PolicyError{Reason: fmt.Sprintf("password must be at most %d characters", p.MaxLen)}
	}

	if !p.RequireLetter && !p.RequireDigit {
		return nil
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if (p.RequireLetter && !hasLetter) || (p.RequireDigit && !hasDigit) {
		return &PolicyError{Reason: "password must contain at least one letter and one digit"}
	}
	return nil
}
