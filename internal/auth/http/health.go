package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/smartlegal/pkg/authsdk"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
)

const readyzTimeout = 2 * time.Second

// Pinger is a dependency readiness can be checked against.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves the liveness and readiness probes. A nil Pinger counts as
// healthy.
type Health struct {
	Started    time.Time
	Version    string
	Database   Pinger
	ResetStore Pinger
}

func (h Health) response(status string) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.Started).Truncate(time.Second).String(),
		Version: h.Version,
	}
}

// Livez godoc
//
//	@Summary		Liveness probe
//	@Description	Returns 200 while the process is serving requests. Dependencies are not checked.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func (h Health) Livez(w http.ResponseWriter, _ *http.Request) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, h.response("ok"))
}

// Readyz godoc
//
//	@Summary		Readiness probe
//	@Description	Pings the credential database and the reset token store. Any failure makes the service not ready.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"degraded with the failing checks"
//	@Router			/readyz [get].
func (h Health) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
	defer cancel()

	checks := &authsdk.HealthChecks{
		Database:   ping(ctx, h.Database),
		ResetStore: ping(ctx, h.ResetStore),
	}

	res, code := h.response("ok"), http.StatusOK
	if checks.Database != "ok" || checks.ResetStore != "ok" {
		res, code = h.response("degraded"), http.StatusServiceUnavailable
	}
	res.Checks = checks

	httpx.NoCache(w)
	httpx.WriteJSON(w, code, res)
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "ok"
	}
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
