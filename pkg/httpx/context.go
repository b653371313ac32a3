package httpx

import (
	"context"
	"strconv"
)

type ctxKey string

const (
	CtxKeyIdentity ctxKey = "identity"
	CtxKeyClaims   ctxKey = "claims"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID int64
	Email  string
	Role   string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, CtxKeyIdentity, id)
}

// IdentityFromContext returns the caller identity, if the request was
// authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(CtxKeyIdentity).(Identity)
	return id, ok
}

func userIDFromCtx(ctx context.Context) string {
	if id, ok := IdentityFromContext(ctx); ok {
		return strconv.FormatInt(id.UserID, 10)
	}
	return ""
}
