/*
Package main is the entry point for the secrets server.

It loads configuration, initializes the global logger, opens the credential
and session stores, and either serves HTTP until SIGINT/SIGTERM (the default
"serve" command) or applies database migrations and exits ("migrate").
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"secrets/internal/app/db"
	"secrets/internal/app/federated"
	"secrets/internal/app/password"
	"secrets/internal/app/session"
	"secrets/internal/configs"
	"secrets/internal/handler"
	"secrets/internal/pkg/logx"
	"secrets/internal/views"
)

func main() {
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment())
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("federated_enabled", cfg.FederatedEnabled()).
		Msg("Configuration loaded successfully")

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := cfg.Port
	app := &cli.App{
		Name:  "secrets",
		Usage: "Register, sign in and share secrets anonymously",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "port",
				Usage:       "Port to listen on, overrides PORT",
				Destination: &port,
				Value:       port,
			},
		},
		Action: func(c *cli.Context) error {
			if err := cfg.OverridePort(port); err != nil {
				return err
			}
			return serve(c.Context, cfg)
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server (default)",
				Action: func(c *cli.Context) error {
					if err := cfg.OverridePort(port); err != nil {
						return err
					}
					return serve(c.Context, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "Apply pending database migrations and exit",
				Action: func(c *cli.Context) error {
					return migrate(c.Context, cfg)
				},
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		logx.Fatal(err, "Application failed")
	}
}

// migrate opens the credential store, which applies any pending migrations.
func migrate(ctx context.Context, cfg *configs.AppConfig) error {
	users, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	logx.Info("Migrations are up to date")
	return users.Close()
}

func serve(ctx context.Context, cfg *configs.AppConfig) error {
	users, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer users.Close()

	sessionStore, err := session.NewStore(ctx, cfg.SessionStoreURL, cfg.SessionTTL)
	if err != nil {
		return err
	}
	sessions, err := session.NewManager(sessionStore, session.Config{
		Secret: cfg.SessionSecret,
		TTL:    cfg.SessionTTL,
		Secure: !cfg.IsDevelopment(),
	})
	if err != nil {
		sessionStore.Close()
		return err
	}
	defer sessions.Close()

	verifier, err := password.NewVerifier(cfg.BcryptCost)
	if err != nil {
		return err
	}
	logx.Info("Password verifier ready", "bcrypt_cost", verifier.Cost())

	renderer, err := views.New()
	if err != nil {
		return err
	}

	deps := &handler.AppDeps{
		Config:    cfg,
		Users:     users,
		Passwords: verifier,
		Sessions:  sessions,
		Views:     renderer,
	}
	if cfg.FederatedEnabled() {
		deps.Federated = federated.NewAdapter(federated.NewGoogle(federated.GoogleConfig{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			CallbackURL:  cfg.CallbackURL(),
			Timeout:      cfg.OAuthTimeout,
		}), users)
	} else {
		logx.Warn("CLIENT_ID/CLIENT_SECRET not set; Sign In with Google is disabled")
	}

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              serverAddr,
		Handler:           handler.Router(deps),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logx.Info(fmt.Sprintf("Secrets server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logx.Info("Server gracefully stopped.")
	return nil
}
