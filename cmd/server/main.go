package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/intelliment/puppet-integration/internal/api"
	"github.com/intelliment/puppet-integration/internal/auth"
	"github.com/intelliment/puppet-integration/internal/config"
	"github.com/intelliment/puppet-integration/internal/inventory"
	"github.com/intelliment/puppet-integration/internal/service"
	"github.com/intelliment/puppet-integration/internal/session"
	"github.com/intelliment/puppet-integration/internal/storage/sql"
	"github.com/intelliment/puppet-integration/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating data directory: %w", err)
			}
		}
	}

	// Initialize storage
	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	// Initialize inventory client (or file shim for testing)
	var inv inventory.Service
	if cfg.UseFileShim() {
		logger.Info("Using file shim for inventory service", zap.String("path", cfg.Inventory.FileShim))
		inv = inventory.NewFileShim(cfg.Inventory.FileShim, logger.Named("inventory"))
	} else {
		client, err := inventory.New(cfg.Inventory.URL, &http.Client{Timeout: cfg.Inventory.Timeout}, logger.Named("inventory"))
		if err != nil {
			return fmt.Errorf("initializing inventory client: %w", err)
		}
		inv = client
	}

	history := service.NewHistoryService(store, logger.Named("history"))

	sessionLogger := logger.Named("session")
	registry := session.NewRegistry(func(operator string, notifier session.Notifier) (*session.Session, error) {
		return session.New(session.Config{
			Inventory:   inv,
			EndpointURL: cfg.Inventory.EndpointURL,
			Notifier:    notifier,
			Recorder:    history,
			Operator:    operator,
			Logger:      sessionLogger.With(zap.String("operator", operator)),
		})
	}, cfg.Session.IdleTimeout, sessionLogger)

	oidc, err := newOIDC(cfg)
	if err != nil {
		return err
	}

	// Create router
	router := api.NewRouter(history, web.Config{
		Registry:     registry,
		History:      history,
		OIDC:         oidc,
		CookieSecure: cfg.Session.CookieSecure,
		Logger:       logger.Named("web"),
	}, logger.Named("http"))

	// Create HTTP server. Panel actions wait for the inventory service, so
	// writes may take up to the inventory timeout.
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Inventory.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.Info("Starting requirements panel",
		zap.String("addr", "http://"+cfg.Server.Addr()),
		zap.String("endpoint_url", cfg.Inventory.EndpointURL),
		zap.Bool("file_shim", cfg.UseFileShim()),
		zap.Bool("oidc", cfg.OIDC.Enabled),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// newOIDC builds the login components, or returns nil when OIDC is disabled.
func newOIDC(cfg *config.Config) (*web.OIDCComponents, error) {
	if !cfg.OIDC.Enabled {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := auth.NewOIDCProvider(ctx,
		cfg.OIDC.IssuerURL,
		cfg.OIDC.ClientID,
		cfg.OIDC.ClientSecret,
		cfg.OIDC.RedirectURL,
		cfg.OIDC.GetScopes(),
		cfg.OIDC.GetAllowedDomains(),
	)
	if err != nil {
		return nil, err
	}

	key, err := cfg.OIDC.GetSessionSecretBytes()
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewSessionManager(key, cfg.OIDC.SessionDuration, cfg.Session.CookieSecure)
	if err != nil {
		return nil, err
	}
	states, err := auth.NewStateStore(key, cfg.Session.CookieSecure)
	if err != nil {
		return nil, err
	}

	return &web.OIDCComponents{
		Authenticator:  provider,
		SessionManager: sessions,
		StateStore:     states,
		LogoutURL:      cfg.OIDC.LogoutURL,
	}, nil
}
