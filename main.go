package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"focustache/internal/config"
	"focustache/internal/logging"
	"focustache/internal/repositories"
	"focustache/internal/services"
	"focustache/pkg/rabbitmq"

	"github.com/spf13/viper"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// --- Configuration ---
	cfg, err := config.Load(viper.New())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Log, os.Stdout)
	slog.SetDefault(logger)
	if err != nil {
		slog.Warn("invalid LOG_LEVEL, using info", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Initialize Store ---
	store, err := repositories.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}()
	slog.Info("store ready", "driver", store.Driver)

	// --- Initialize RabbitMQ Client ---
	var publisher services.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL, Queue: cfg.RabbitMQ.Queue})
		if err != nil {
			return err
		}
		defer func() {
			if err := mqClient.Close(); err != nil {
				slog.Error("failed to close rabbitmq client", "error", err)
			}
		}()
		publisher = mqClient
		slog.Info("event publishing enabled", "queue", mqClient.Queue())

		audit := rabbitmq.AuditHandler(logger.With("component", "audit"))
		if err := mqClient.ConsumeEvents(ctx, audit); err != nil {
			slog.Error("failed to start event consumer", "error", err)
		}
	} else {
		slog.Info("RABBITMQ_URL not set, event publishing disabled")
	}

	app := newApp(cfg, store, publisher, os.Stdout)

	// --- Start HTTP Server ---
	listenErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.App.Port, "env", cfg.App.Env)
		listenErr <- app.Listen(cfg.App.Port)
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down server", "timeout", cfg.App.ShutdownTimeout)
	if err := app.ShutdownWithTimeout(cfg.App.ShutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server gracefully stopped")
	return nil
}
