package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tirelire/internal/amqp"
	"tirelire/internal/config"
	applog "tirelire/internal/log"
	"tirelire/internal/services"
	"tirelire/internal/storage"
	"tirelire/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Level: slog.LevelInfo, Component: "recurring-worker"})
	applog.SetDefault(logger)

	logger.Info("Starting recurring-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPLedgerQueue, cfg.AMQPMaterializeQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, running on periodic sweeps only", "error", err)
			amqpClient = nil
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	materializer := services.NewMaterializer(repo, repo, publisher, logger.Logger)
	recurring := worker.NewRecurringWorker(repo, materializer)

	// Sweep once on startup so a worker restart catches up immediately.
	if err := recurring.Sweep(ctx); err != nil {
		logger.Error("Startup sweep failed", "error", err)
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeMaterializeRequests(ctx, func(msg *amqp.MaterializeRequestMessage) error {
				return recurring.HandleRequest(ctx, msg.UserID)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
				cancel()
			}
		}()
	}

	ticker := time.NewTicker(cfg.MaterializeInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := recurring.Sweep(ctx); err != nil {
					logger.Error("Periodic sweep failed", "error", err)
				}
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	logger.Info("Worker shutdown complete")
}
