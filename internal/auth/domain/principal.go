package domain

import (
	"net/mail"
	"strings"
	"time"
)

// RoleLawyer is the role every registered principal receives.
const RoleLawyer = "ADVOGADO"

// Principal is the credential owner as held by the credential store.
type Principal struct {
	ID           int64
	Email        string // normalized, unique
	PasswordHash string // argon2id PHC or legacy bcrypt
	DisplayName  string
	Role         string
	Active       bool
	OAB          string // bar registration number
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is what the authentication middleware attaches to a request.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

// Identity returns the request-scoped view of p.
func (p Principal) Identity() Identity {
	return Identity{UserID: p.ID, Email: p.Email, Role: p.Role}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address such as "a@x.com".
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndex(email, "@")
	return at > 0 && strings.Contains(email[at:], ".")
}
