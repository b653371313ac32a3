package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/metrics"
	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"

	_ "github.com/aussiebroadwan/smartlegal/api/docs" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	authn        httpx.AuthnConfig
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	database    Pinger
	resetStore  Pinger
	limits      httpx.RateLimits
	AuthService *service.AuthService
	UserService *service.UserService
	Passwords   *service.PasswordService
	Observer    Observer

	// Metrics, when set, instruments every request and serves /metrics
	// from MetricsHandler.
	Metrics        *metrics.Collector
	MetricsHandler http.Handler
}

func NewRouter(
	authn httpx.AuthnConfig,
	buildVersion string,
	database, resetStore Pinger,
	limits httpx.RateLimits,
	logger *slog.Logger,
) *Router {
	if limits == (httpx.RateLimits{}) {
		limits = httpx.DefaultRateLimits()
	}
	return &Router{
		Mux:          http.NewServeMux(),
		authn:        authn,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		database:     database,
		resetStore:   resetStore,
		limits:       limits,
		logger:       logger,
	}
}

// ApplyRoutes registers every route and builds the global middleware chain.
// Call it after the services are set.
func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPassword()
	r.registerSystem()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())

	// Authentication is global and fail-open; protected routes add
	// RequireAuthenticated. Metrics stays innermost so the mux pattern is
	// visible on the request it sees.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.AuthnMiddleware(r.authn),
	}
	if r.Metrics != nil {
		r.middlewares = append(r.middlewares, r.Metrics.Middleware)
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			SmartLegal Authentication API
//	@version		1.0.0
//	@description	Credential and session lifecycle of the SmartLegal back office: registration, login, token refresh and validation, password change and reset.
//	@description
//	@description				Tokens are HS256 JWTs. Send the access token as "Bearer {token}".
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService: r.AuthService,
		UserService: r.UserService,
		Authn:       r.authn,
		Observer:    r.Observer,
	}

	r.Mux.Handle("POST /api/auth/registro",
		httpx.Chain(http.HandlerFunc(h.HandleRegister), httpx.RateLimitByIP(r.limits.Strict)),
	)
	// Guessing one account's password is capped per IP and account; spraying
	// many accounts from one IP hits the per-IP cap.
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByCredential(r.limits.Strict),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)

	r.Mux.Handle("POST /api/auth/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh), httpx.RateLimitByIP(r.limits.Moderate)),
	)

	// Validate is polled by other back office services.
	validate := httpx.Chain(http.HandlerFunc(h.HandleValidate), httpx.RateLimitByIP(r.limits.Public))
	r.Mux.Handle("GET /api/auth/validate", validate)
	r.Mux.Handle("POST /api/auth/validate", validate)

	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(http.HandlerFunc(h.HandleMe),
			httpx.RequireAuthenticated,
			httpx.RateLimitByUser(r.limits.Lenient),
		),
	)
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			httpx.RequireAuthenticated,
			httpx.RateLimitByUser(r.limits.Lenient),
		),
	)
}

func (r *Router) registerPassword() {
	h := &PasswordHandler{PasswordService: r.Passwords, Observer: r.Observer}

	r.Mux.Handle("POST /api/auth/esqueceu-senha",
		httpx.Chain(http.HandlerFunc(h.HandleForgot),
			httpx.RateLimitByCredential(r.limits.Strict),
			httpx.RateLimitByIP(r.limits.Moderate),
		),
	)
	r.Mux.Handle("POST /api/auth/resetar-senha",
		httpx.Chain(http.HandlerFunc(h.HandleReset), httpx.RateLimitByIP(r.limits.Strict)),
	)

	r.Mux.Handle("POST /api/auth/alterar-senha",
		httpx.Chain(http.HandlerFunc(h.HandleChange),
			httpx.RequireAuthenticated,
			httpx.RateLimitByUser(r.limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	health := Health{
		Started:    r.startTime,
		Version:    r.buildVersion,
		Database:   r.database,
		ResetStore: r.resetStore,
	}

	// Probes are polled by the orchestrator; lenient per-IP limits.
	r.Mux.Handle("GET /livez", httpx.Chain(http.HandlerFunc(health.Livez), httpx.RateLimitByIP(r.limits.Lenient)))
	r.Mux.Handle("GET /readyz", httpx.Chain(http.HandlerFunc(health.Readyz), httpx.RateLimitByIP(r.limits.Lenient)))

	if r.MetricsHandler != nil {
		r.Mux.Handle("GET /metrics", r.MetricsHandler)
	}
}
