package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/smartlegal/pkg/jwtx"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
)

const (
	DefaultAuthHeader  = "Authorization"
	DefaultTokenPrefix = "Bearer "
)

// Resolver maps verified claims onto the current caller identity.
type Resolver interface {
	Resolve(ctx context.Context, claims jwtx.Claims) (Identity, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, claims jwtx.Claims) (Identity, error)

func (f ResolverFunc) Resolve(ctx context.Context, claims jwtx.Claims) (Identity, error) {
	return f(ctx, claims)
}

type AuthnConfig struct {
	Verifier jwtx.Verifier
	Resolver Resolver

	// HeaderName defaults to DefaultAuthHeader, Prefix to DefaultTokenPrefix.
	HeaderName string
	Prefix     string
}

func (c AuthnConfig) header() string {
	if c.HeaderName == "" {
		return DefaultAuthHeader
	}
	return c.HeaderName
}

func (c AuthnConfig) prefix() string {
	if c.Prefix == "" {
		return DefaultTokenPrefix
	}
	return c.Prefix
}

// Authentication is the outcome of inspecting a request: either an
// authenticated identity or anonymous.
type Authentication struct {
	identity      Identity
	claims        jwtx.Claims
	authenticated bool
}

func Authenticated(id Identity, claims jwtx.Claims) Authentication {
	return Authentication{identity: id, claims: claims, authenticated: true}
}

func Anonymous() Authentication { return Authentication{} }

func (a Authentication) IsAuthenticated() bool { return a.authenticated }

// Identity returns the caller, or false for an anonymous request.
func (a Authentication) Identity() (Identity, bool) {
	return a.identity, a.authenticated
}

// BearerToken extracts the token that follows prefix in the configured
// header. It reports false when the header or prefix is missing.
func BearerToken(r *http.Request, cfg AuthnConfig) (string, bool) {
	raw := r.Header.Get(cfg.header())
	prefix := cfg.prefix()
	if !strings.HasPrefix(raw, prefix) {
		return "", false
	}
	token := strings.TrimSpace(raw[len(prefix):])
	return token, token != ""
}

// Authenticate inspects r and never fails: every problem with the
// credentials yields Anonymous.
func Authenticate(r *http.Request, cfg AuthnConfig) Authentication {
	token, ok := BearerToken(r, cfg)
	if !ok {
		return Anonymous()
	}

	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, err := cfg.Verifier.Verify(token)
	if err != nil {
		log.Debug("bearer token rejected", "err", err)
		return Anonymous()
	}

	if cfg.Resolver == nil {
		return Authenticated(Identity{UserID: claims.UserID, Email: claims.Subject, Role: claims.Role}, claims)
	}

	id, err := cfg.Resolver.Resolve(ctx, claims)
	if err != nil {
		log.Debug("bearer principal not resolved", "err", err)
		return Anonymous()
	}
	return Authenticated(id, claims)
}

// AuthnMiddleware attaches the caller identity to the request context when
// the request carries a valid token. It always calls next; rejecting
// anonymous callers is left to RequireAuthenticated.
func AuthnMiddleware(cfg AuthnConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authn := Authenticate(r, cfg)
			if id, ok := authn.Identity(); ok {
				ctx := WithIdentity(r.Context(), id)
				ctx = context.WithValue(ctx, CtxKeyClaims, authn.claims)
				ctx = slogx.WithUser(ctx, id.UserID)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the verified token claims of an authenticated
// request.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}
