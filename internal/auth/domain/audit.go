package domain

import "time"

// Audit event names.
const (
	EventLogin          = "LOGIN"
	EventLogout         = "LOGOUT"
	EventRefresh        = "REFRESH"
	EventRegister       = "REGISTER"
	EventPasswordChange = "PASSWORD_CHANGE"
	EventPasswordForgot = "PASSWORD_FORGOT"
	EventPasswordReset  = "PASSWORD_RESET"
)

// Audit outcomes.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
)

// AuditEvent is one row of the audit log. ActorID is zero when the actor is
// unknown (e.g. a failed login).
type AuditEvent struct {
	ID         string
	Event      string
	ActorID    int64
	Outcome    string
	IP         string
	UserAgent  string
	Details    string
	OccurredAt time.Time
}
