package app

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/upb/appservice-auth/appservice"
	"github.com/upb/appservice-auth/config"
	"github.com/upb/appservice-auth/handlers"
	"github.com/upb/appservice-auth/middleware"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Auth
	EndpointClient *appservice.EndpointClient
	Authenticator  *appservice.Authenticator
	AuthMiddleware *middleware.AuthMiddleware

	// Handlers
	HealthHandler   *handlers.HealthHandler
	IdentityHandler *handlers.IdentityHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	deps.initAuth(cfg)
	deps.initHandlers()

	logger.Info("all dependencies initialized successfully",
		zap.String("environment", cfg.Environment),
		zap.Bool("auth_required", cfg.Auth.Required))
	return deps, nil
}

// initAuth builds the /.auth/me client and the authenticator on top of it
func (d *Dependencies) initAuth(cfg *config.Config) {
	d.EndpointClient = appservice.NewEndpointClient(appservice.ClientConfig{
		Timeout:      cfg.Auth.EndpointTimeout,
		MaxBodyBytes: cfg.Auth.MaxPayloadBytes,
		Logger:       d.Logger.Named("endpoint"),
	})
	d.Authenticator = appservice.NewAuthenticator(d.EndpointClient, d.Logger.Named("appservice"))
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Authenticator, cfg.Auth.TrustForwardedProto, d.Logger).
		WithAllowedHosts(cfg.Auth.AllowedHosts)

	d.Logger.Info("auth initialized",
		zap.Duration("endpoint_timeout", cfg.Auth.EndpointTimeout),
		zap.Int64("max_payload_bytes", cfg.Auth.MaxPayloadBytes),
		zap.Bool("trust_forwarded_proto", cfg.Auth.TrustForwardedProto),
		zap.Strings("allowed_hosts", cfg.Auth.AllowedHosts))
}

func (d *Dependencies) initHandlers() {
	d.HealthHandler = handlers.NewHealthHandler(d.Logger)
	d.IdentityHandler = handlers.NewIdentityHandler(d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	if d.HealthHandler != nil {
		d.HealthHandler.SetReady(false)
	}

	// Sync fails with EINVAL/ENOTTY on stdout and stderr; nothing to flush there
	if err := d.Logger.Sync(); err != nil && !errors.Is(err, syscall.EINVAL) && !errors.Is(err, syscall.ENOTTY) {
		return fmt.Errorf("failed to sync logger: %w", err)
	}

	return nil
}
