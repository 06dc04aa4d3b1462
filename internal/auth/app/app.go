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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/seroft/pharmhub-auth/internal/auth/http"
	"github.com/seroft/pharmhub-auth/internal/auth/metrics"
	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/internal/auth/store/drivers/sqlite"
	"github.com/seroft/pharmhub-auth/pkg/cryptox"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	hasher     *cryptox.Hasher
	registry   *prometheus.Registry
	metrics    *metrics.Metrics

	// Services
	tokenService        *service.TokenService
	userService         *service.UserService
	bootstrapService    *service.BootstrapService
	challengeService    *service.ChallengeService
	loginService        *service.LoginService
	sessionService      *service.SessionService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "pharmhub-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	if app.hasher, err = cryptox.NewHasher(pepper); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	keyManager, err := InitAuthKeys(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	app.initMetrics()
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (app *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return app.serve(ctx)
}

func (app *Application) serve(ctx context.Context) error {
	app.housekeepingService.Start()
	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		app.logger.Info("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initMetrics() {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)
}

func (app *Application) codeSender() (service.CodeSender, error) {
	switch app.cfg.OTPDelivery {
	case "", "log":
		if app.cfg.Env == "prod" {
			return nil, errors.New("AUTH_OTP_DELIVERY=log is not allowed when ENV=prod")
		}
		app.logger.Warn("step-up codes are written to the log; do not use in production")
		return service.LogCodeSender{Logger: app.logger}, nil
	case "email":
		smtp := app.cfg.SMTP
		if smtp.From == "" {
			return nil, errors.New("AUTH_SMTP_FROM is required when AUTH_OTP_DELIVERY=email")
		}
		client, err := service.NewSMTPMailer(service.SMTPConfig{
			Host:     smtp.Host,
			Port:     smtp.Port,
			TLS:      smtp.TLS,
			Username: smtp.Username,
			Password: smtp.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure AUTH_SMTP_HOST: %w", err)
		}
		app.logger.Info("step-up codes are sent by email", "host", smtp.Host, "port", smtp.Port, "tls", smtp.TLS)
		return service.EmailCodeSender{Mailer: client, From: smtp.From}, nil
	default:
		return nil, fmt.Errorf("unknown AUTH_OTP_DELIVERY %q", app.cfg.OTPDelivery)
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	sender, err := app.codeSender()
	if err != nil {
		return err
	}

	app.tokenService = &service.TokenService{
		KeyManager:    app.keyManager,
		Issuer:        app.cfg.Issuer,
		ResolutionTTL: app.cfg.ResolutionTokenTTL,
	}
	app.userService = &service.UserService{Store: app.db, Hasher: app.hasher}
	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Users: app.userService,
		Token: app.cfg.BootstrapToken,
	}
	app.challengeService = &service.ChallengeService{
		Store:       app.db,
		Sender:      sender,
		Metrics:     app.metrics,
		Issuer:      app.cfg.ChallengeIssuer,
		TTL:         app.cfg.ChallengeTTL,
		MaxAttempts: app.cfg.ChallengeMaxAttempts,
	}
	app.loginService = &service.LoginService{
		Store:             app.db,
		Hasher:            app.hasher,
		Tokens:            app.tokenService,
		Challenges:        app.challengeService,
		Risk:              service.DefaultRiskRules{TrustFirstDevice: app.cfg.TrustFirstDevice},
		Metrics:           app.metrics,
		SessionTTL:        app.cfg.SessionTTL,
		MaxActiveSessions: app.cfg.MaxActiveSessions,
		IdleTimeout:       app.cfg.SessionIdleTimeout,
		MaxDevices:        app.cfg.MaxDevices,
	}
	app.sessionService = &service.SessionService{
		Store:       app.db,
		Metrics:     app.metrics,
		IdleTimeout: app.cfg.SessionIdleTimeout,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.metrics,
		app.cfg.HousekeepingInterval,
		app.cfg.SessionIdleTimeout,
	)

	app.logger.Info("login policy",
		"max_active_sessions", app.cfg.MaxActiveSessions,
		"max_devices", app.cfg.MaxDevices,
		"otp_delivery", app.cfg.OTPDelivery,
		"trust_first_device", app.cfg.TrustFirstDevice,
		"session_ttl", app.cfg.SessionTTL,
		"idle_timeout", app.cfg.SessionIdleTimeout,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.LoginService = app.loginService
	router.SessionService = app.sessionService
	router.UserService = app.userService
	router.BootstrapService = app.bootstrapService
	if app.cfg.MetricsEnabled {
		router.Gatherer = app.registry
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
