package domain

import "time"

// TokenPair is what login and refresh return.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string        // always "Bearer"
	ExpiresIn    time.Duration // access token lifetime
}

// Validation is the outcome of validating an access token. An invalid
// result carries no other fields.
type Validation struct {
	Valid  bool
	UserID int64
	Email  string
	Role   string
}

// ResetTokenEntry is a single-use password reset grant.
type ResetTokenEntry struct {
	Token     string
	UserID    int64
	Email     string
	ExpiresAt time.Time
}

// Expired reports whether the entry is past its deadline at now.
func (e ResetTokenEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}
