// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Parley Contributors

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parley/parley/internal/auth"
	"github.com/parley/parley/internal/config"
	"github.com/parley/parley/internal/httpapi"
	"github.com/parley/parley/internal/logging"
	"github.com/parley/parley/internal/message"
	messagepg "github.com/parley/parley/internal/message/postgres"
	"github.com/parley/parley/internal/notify"
	"github.com/parley/parley/internal/observability"
	"github.com/parley/parley/internal/store"
	userpg "github.com/parley/parley/internal/user/postgres"
)

// Default values for serve command flags.
const (
	defaultListen      = ":8080"
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"

	shutdownTimeout = 5 * time.Second
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Parley API server",
		Long: `Start the HTTP API server which handles registration, login,
password resets, and direct messages.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().String("listen", defaultListen, "API listen address")
	cmd.Flags().String("metrics-addr", defaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("database-url", "", "PostgreSQL connection URL (default: DATABASE_URL)")
	cmd.Flags().String("log-format", defaultLogFormat, "log format (json or text)")
	cmd.Flags().Int("bcrypt-cost", auth.DefaultBcryptCost, "bcrypt work factor for password hashing")
	cmd.Flags().String("token-secret", "", "session token signing secret")

	return cmd
}

// runServe wires the services together and runs the API server until a
// shutdown signal or a fatal server error.
func runServe(ctx context.Context, cfg *config.Config, cmd *cobra.Command) error {
	logging.SetDefault(cmd.Root().Version, cfg.LogFormat)
	logger := slog.Default()

	logger.Info("starting parley server",
		"listen", cfg.Listen,
		"log_format", cfg.LogFormat,
	)

	pool, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	logger.Info("connected to database")

	users := userpg.NewUserRepository(pool)
	messages := messagepg.NewMessageRepository(pool)

	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	tokens, err := auth.NewTokenIssuer([]byte(cfg.TokenSecret))
	if err != nil {
		return err
	}

	authSvc, err := auth.NewService(users, hasher)
	if err != nil {
		return err
	}

	var notifier notify.Notifier
	if cfg.SMS.Enabled {
		notifier, err = notify.NewSMSNotifier(cfg.SMS.Endpoint, cfg.SMS.AccountSID, cfg.SMS.AuthToken, cfg.SMS.FromNumber)
		if err != nil {
			return err
		}
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	resetSvc, err := auth.NewResetService(users, hasher, notifier, logger)
	if err != nil {
		return err
	}

	messageSvc, err := message.NewService(messages)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured. Readiness tracks the
	// database connection.
	var obsServer *observability.Server
	var metrics *observability.Metrics
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			pingCtx, pingCancel := context.WithTimeout(ctx, time.Second)
			defer pingCancel()
			return pool.Ping(pingCtx) == nil
		})
		metrics = obsServer.Metrics()

		obsErrChan, obsErr := obsServer.Start()
		if obsErr != nil {
			return obsErr
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	api, err := httpapi.NewServer(authSvc, tokens, resetSvc, messageSvc, users, metrics, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	cmd.Println("Parley server started")
	logger.Info("parley server ready", "listen", cfg.Listen)

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-errChan:
		cancel()
		return err
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("error stopping API server", "error", err)
	}

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("error stopping observability server", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors watches a server's error channel and cancels the
// context on error so a failed auxiliary server takes the process down
// gracefully. It exits when an error arrives, the channel closes, or
// the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
