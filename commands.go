package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/startupjobs/jobboard-service/internal/auth"
	"github.com/startupjobs/jobboard-service/internal/config"
	"github.com/startupjobs/jobboard-service/internal/intake"
	"github.com/startupjobs/jobboard-service/internal/lifecycle"
	"github.com/startupjobs/jobboard-service/internal/listing"
	"github.com/startupjobs/jobboard-service/internal/moderation"
	"github.com/startupjobs/jobboard-service/internal/notify"
	"github.com/startupjobs/jobboard-service/internal/server"
	"github.com/startupjobs/jobboard-service/internal/storage"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobboard",
		Short:         "Startup job board service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP service",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe()
			},
		},
		newSweepCommand(),
		&cobra.Command{
			Use:   "hash-password <password>",
			Short: "Print the bcrypt hash to use as ADMIN_PASSWORD_HASH",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				hash, err := auth.HashPassword(args[0])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), hash)
				return err
			},
		},
	)

	return root
}

func newSweepCommand() *cobra.Command {
	var threshold time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire stale active postings once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), threshold)
		},
	}
	cmd.Flags().DurationVar(&threshold, "threshold", 0, "Override EXPIRATION_THRESHOLD")

	return cmd
}

// setup loads configuration and builds the logger
func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Error("Failed to load configuration")
		return nil, nil, err
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	logger.SetLevel(level)
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func runServe() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize storage")
		return err
	}
	defer store.Close()

	notifier, err := notify.NewNotifier(cfg.Mail, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize notifier")
		return err
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, err := auth.NewSessionStore(ctx, cfg.Auth)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize session store")
		return err
	}
	if closer, ok := sessions.(io.Closer); ok {
		defer closer.Close()
	}
	if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPasswordHash == "" {
		logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD_HASH not set, administrator login is disabled")
	}

	clock := lifecycle.RealClock{}
	engine := lifecycle.NewEngine(store, clock, logger)
	httpServer := server.NewServer(cfg.Server, cfg.Auth, server.Dependencies{
		Intake:     intake.NewService(store, notifier, clock, cfg.Mail.OperatorEmail, logger),
		Moderation: moderation.NewService(store, engine, auth.ContextAuthorizer{}, cfg.Lifecycle.ExpirationThreshold, logger),
		Listing:    listing.NewService(store, cfg.Server.SiteName, cfg.Server.RecentLimit),
		Auth:       auth.NewService(cfg.Auth, sessions),
		Health:     store,
	}, logger)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start HTTP server
	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Starting HTTP server")
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server error")
			select {
			case sigChan <- syscall.SIGTERM:
			default:
			}
		}
	}()

	// Start the periodic sweep when configured
	if cfg.Lifecycle.SweepInterval > 0 {
		scheduler := lifecycle.NewScheduler(engine, cfg.Lifecycle.SweepInterval, cfg.Lifecycle.ExpirationThreshold, logger)
		go func() {
			logger.WithField("interval", cfg.Lifecycle.SweepInterval.String()).Info("Starting expiration scheduler")
			if err := scheduler.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Expiration scheduler error")
			}
		}()
	}

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown error")
	}

	cancel()
	logger.Info("Shutdown complete")
	return nil
}

func runSweep(ctx context.Context, threshold time.Duration) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if threshold <= 0 {
		threshold = cfg.Lifecycle.ExpirationThreshold
	}

	store, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize storage")
		return err
	}
	defer store.Close()

	n, err := lifecycle.NewEngine(store, lifecycle.RealClock{}, logger).SweepExpirations(ctx, threshold)
	if err != nil {
		logger.WithError(err).WithField("expired", n).Error("Expiration sweep failed")
		return err
	}
	logger.WithField("expired", n).Info("Expiration sweep finished")
	return nil
}
