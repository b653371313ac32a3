// Package reset issues and redeems single-use password reset tokens.
package reset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/domain"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
)

// DefaultTTL is how long a reset token stays redeemable.
const DefaultTTL = time.Hour

var (
	// ErrNotFound is returned by a Store when no entry exists for a token.
	ErrNotFound = errors.New("reset: token not found")

	// ErrInvalidToken means the token is unknown, expired, consumed, or
	// currently being redeemed by another request.
	ErrInvalidToken = errors.New("reset: invalid token")
)

// Store holds reset entries keyed by token. Implementations must be safe for
// concurrent use.
type Store interface {
	Put(ctx context.Context, entry domain.ResetTokenEntry) error
	Get(ctx context.Context, token string) (domain.ResetTokenEntry, error)
	Delete(ctx context.Context, token string) (bool, error)

	// Sweep removes entries expired at now and reports how many went.
	Sweep(ctx context.Context, now time.Time) (int, error)

	Ping(ctx context.Context) error
	Close() error
}

type Option func(*Registry)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// Registry is the reset token lifecycle on top of a Store.
type Registry struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	inflight sync.Map // token -> struct{}
}

func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store: store,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) TTL() time.Duration { return r.ttl }

// Generate creates a token for the user and stores it until now+TTL.
// Expired entries are swept on the way out.
func (r *Registry) Generate(ctx context.Context, userID int64, email string) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	now := r.now()
	entry := domain.ResetTokenEntry{
		Token:     token,
		UserID:    userID,
		Email:     email,
		ExpiresAt: now.Add(r.ttl),
	}
	if err := r.store.Put(ctx, entry); err != nil {
		return "", err
	}

	if _, err := r.store.Sweep(ctx, now); err != nil {
		slogx.FromContext(ctx).Warn("reset token sweep failed", "error", err)
	}

	return token, nil
}

// Check returns the user a live token belongs to without consuming it.
// Expired entries are deleted as a side effect.
func (r *Registry) Check(ctx context.Context, token string) (int64, bool) {
	if token == "" {
		return 0, false
	}

	entry, err := r.store.Get(ctx, token)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			slogx.FromContext(ctx).Warn("reset token lookup failed", "error", err)
		}
		return 0, false
	}

	if entry.Expired(r.now()) {
		if _, err := r.store.Delete(ctx, token); err != nil {
			slogx.FromContext(ctx).Warn("failed to delete expired reset token", "error", err)
		}
		return 0, false
	}

	return entry.UserID, true
}

// Invalidate removes the token whether or not it exists.
func (r *Registry) Invalidate(ctx context.Context, token string) error {
	_, err := r.store.Delete(ctx, token)
	return err
}

// Redeem runs fn for the token's user and invalidates the token only once fn
// succeeds. A concurrent Redeem of the same token fails with ErrInvalidToken.
func (r *Registry) Redeem(ctx context.Context, token string, fn func(userID int64) error) error {
	if _, busy := r.inflight.LoadOrStore(token, struct{}{}); busy {
		return ErrInvalidToken
	}
	defer r.inflight.Delete(token)

	userID, ok := r.Check(ctx, token)
	if !ok {
		return ErrInvalidToken
	}

	if err := fn(userID); err != nil {
		return err
	}

	if err := r.Invalidate(ctx, token); err != nil {
		slogx.FromContext(ctx).Error("failed to invalidate redeemed reset token",
			"user_id", userID,
			"error", err,
		)
	}
	return nil
}

// Sweep removes every expired entry.
func (r *Registry) Sweep(ctx context.Context) (int, error) {
	return r.store.Sweep(ctx, r.now())
}

func (r *Registry) Ping(ctx context.Context) error { return r.store.Ping(ctx) }
