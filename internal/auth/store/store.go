package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement this and expose sub-repositories per concern.
type Store interface {
	Principals() Principals
	AuditLogs() AuditLogs

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Principals is the credential store.
type Principals interface {
	// FindByEmail looks a principal up by normalized email.
	FindByEmail(ctx context.Context, email string) (domain.Principal, error)

	// FindByID looks a principal up by id.
	FindByID(ctx context.Context, id int64) (domain.Principal, error)

	// Save inserts p when p.ID is zero, otherwise replaces every mutable
	// column of the existing row. It returns the stored principal.
	Save(ctx context.Context, p domain.Principal) (domain.Principal, error)
}

type AuditLogs interface {
	// Append writes one audit event.
	Append(ctx context.Context, e domain.AuditEvent) error

	// ListByActor returns the newest events of an actor first.
	ListByActor(ctx context.Context, actorID int64, limit int) ([]domain.AuditEvent, error)

	// DeleteBefore prunes events older than cutoff and reports how many went.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
