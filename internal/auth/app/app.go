package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/smartlegal/internal/auth/http"
	"github.com/aussiebroadwan/smartlegal/internal/auth/mail"
	"github.com/aussiebroadwan/smartlegal/internal/auth/metrics"
	"github.com/aussiebroadwan/smartlegal/internal/auth/reset"
	"github.com/aussiebroadwan/smartlegal/internal/auth/service"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/smartlegal/pkg/cryptox"
	"github.com/aussiebroadwan/smartlegal/pkg/httpx"
	"github.com/aussiebroadwan/smartlegal/pkg/jwtx"
	"github.com/aussiebroadwan/smartlegal/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// BuildVersion is overridden at build time via -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	resetStore reset.Store
	resets     *reset.Registry
	codec      *jwtx.Codec
	hasher     *cryptox.PasswordHasher

	// Services
	authService         *service.AuthService
	userService         *service.UserService
	passwordService     *service.PasswordService
	audit               *service.AsyncAuditSink
	housekeepingService *service.HousekeepingService

	registry  *prometheus.Registry
	collector *metrics.Collector

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "smartlegal-auth",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{cfg: cfg, logger: NewLogger(cfg)}

	generated, err := app.cfg.EnsureSecret()
	if err != nil {
		return nil, err
	}
	if generated {
		app.logger.Warn("JWT_SECRET not set; using a random secret, tokens will not survive a restart")
	}

	if app.cfg.ExposeResetToken {
		app.logger.Warn("reset tokens are exposed in API responses; never enable this in production")
	}

	codec, err := jwtx.NewCodec([]byte(app.cfg.JWTSecret), app.cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewPasswordHasher(pepper)

	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DBDriver)

	if err := app.initResetStore(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// OpenStore opens the configured credential store and applies migrations.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DBDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL)
	default:
		host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", cfg.DatabaseFile)
		db, err = sqlite.NewStore(host)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

func (app *Application) initResetStore(ctx context.Context) error {
	switch app.cfg.ResetStore {
	case "redis":
		rs, err := reset.NewRedisStore(ctx, app.cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect reset token store: %w", err)
		}
		app.resetStore = rs
	default:
		app.resetStore = reset.NewMemoryStore()
	}

	app.resets = reset.NewRegistry(app.resetStore, reset.WithTTL(app.cfg.ResetTokenTTL))
	app.logger.Info("reset token store ready", "backend", app.cfg.ResetStore, "ttl", app.cfg.ResetTokenTTL)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Codec:      app.codec,
		Principals: app.db.Principals(),
		Hasher:     app.hasher,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}
	app.userService = &service.UserService{Principals: app.db.Principals(), Hasher: app.hasher}

	var notifier service.ResetNotifier
	if app.cfg.SMTP.Host != "" {
		notifier = mail.NewSMTPNotifier(app.cfg.SMTP)
	} else {
		app.logger.Warn("SMTP_HOST not set; reset tokens are only logged")
		notifier = mail.LogNotifier{}
	}

	app.passwordService = &service.PasswordService{
		Principals:       app.db.Principals(),
		Hasher:           app.hasher,
		Resets:           app.resets,
		Notifier:         notifier,
		ExposeResetToken: app.cfg.ExposeResetToken,
	}

	app.audit = service.NewAsyncAuditSink(app.db.AuditLogs(), app.logger, app.cfg.AuditBuffer)

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.resets,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AuditRetention,
	)

	if app.cfg.MetricsEnabled {
		app.registry = prometheus.NewRegistry()
		app.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		app.collector = metrics.NewCollector(app.registry)
		metrics.RegisterAuditDropped(app.registry, app.audit.Dropped)
		app.housekeepingService.OnSweep = app.collector.RecordSwept
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	authn := httpx.AuthnConfig{
		Verifier:   app.codec,
		HeaderName: app.cfg.HeaderName,
		Prefix:     app.cfg.TokenPrefix,
		Resolver: httpx.ResolverFunc(func(ctx context.Context, claims jwtx.Claims) (httpx.Identity, error) {
			id, err := app.authService.Resolve(ctx, claims)
			return httpx.Identity(id), err
		}),
	}

	router := httpapi.NewRouter(authn, BuildVersion, app.db, app.resets, app.cfg.RateLimits, app.logger)

	// Wire services to router
	router.AuthService = app.authService
	router.UserService = app.userService
	router.Passwords = app.passwordService
	router.Observer = httpapi.Observer{Audit: app.audit}
	if app.collector != nil {
		router.Observer.Metrics = app.collector
		router.Metrics = app.collector
		router.MetricsHandler = metrics.Handler(app.registry)
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.closeStores(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// closeStores drains the audit queue before the database goes away.
func (app *Application) closeStores() error {
	app.audit.Close()
	if n := app.audit.Dropped(); n > 0 {
		app.logger.Warn("audit events dropped", "count", n)
	}

	if err := app.resetStore.Close(); err != nil {
		app.logger.Error("error closing reset token store", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}
