package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Medcom-Aysharh/adabul-islam-game/internal/config"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/handler"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/kafka"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/postgres"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/redis"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/service"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/store"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/websocket"
	"github.com/Medcom-Aysharh/adabul-islam-game/internal/worker"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Warn("failed to load config file, using defaults", "error", err)
		cfg = config.DefaultConfig()
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the ledger store
	var ledgerStore store.Store
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		logger.Info("connecting to PostgreSQL", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
		repo, err := postgres.NewRepository(&cfg.Postgres, logger)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to PostgreSQL")

		if err := repo.RunMigrations(ctx); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
		ledgerStore = repo
	default:
		logger.Info("using in-memory store")
		mem := store.NewMemoryStore()
		if cfg.Storage.SeedDemo {
			if err := store.SeedDemo(ctx, mem); err != nil {
				logger.Warn("failed to seed demo data", "error", err)
			} else {
				logger.Info("seeded demo data")
			}
		}
		ledgerStore = mem
	}
	defer ledgerStore.Close()

	// Initialize Redis-backed rankings (optional)
	var rankings *redis.Rankings
	if cfg.Redis.Enabled {
		logger.Info("connecting to Redis", "addr", cfg.Redis.Addr)
		rankings, err = redis.NewRankings(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without rankings cache", "error", err)
			rankings = nil
		} else {
			defer rankings.Close()
			logger.Info("connected to Redis")
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub initialized")

	// Initialize services
	ledgerService := service.NewLedgerService(ledgerStore, &cfg.Ledger, logger)
	ledgerService.SetNotifier(wsHub)

	// Initialize rankings rebuild worker
	var rebuildWorker *worker.RebuildWorker
	if rankings != nil {
		ledgerService.SetRankings(rankings)

		rebuildWorker = worker.NewRebuildWorker(rankings, ledgerStore, &cfg.Sync, logger)

		// Rebuild rankings from stored scores on startup (recovery)
		logger.Info("rebuilding rankings from store")
		rebuildWorker.RunOnce(ctx)

		if cfg.Sync.Enabled {
			if err := rebuildWorker.Start(ctx); err != nil {
				logger.Error("failed to start rebuild worker", "error", err)
				os.Exit(1)
			}
		}
	}

	// Initialize Kafka consumer for high-load score ingestion
	var kafkaConsumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		logger.Info("initializing Kafka consumer",
			"brokers", cfg.Kafka.Brokers,
			"topic", cfg.Kafka.Topic,
		)
		var err error
		kafkaConsumer, err = kafka.NewConsumer(&cfg.Kafka, ledgerService, logger)
		if err != nil {
			logger.Warn("failed to create Kafka consumer, continuing without Kafka", "error", err)
		} else {
			if err := kafkaConsumer.Start(); err != nil {
				logger.Warn("failed to start Kafka consumer, continuing without Kafka", "error", err)
				kafkaConsumer = nil
			} else {
				logger.Info("Kafka consumer started successfully")
			}
		}
	}

	// Initialize HTTP handler with WebSocket hub
	httpHandler := handler.NewHandler(ledgerService, wsHub, &cfg.Ledger, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpHandler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "port", cfg.Server.Port)
		logger.Info("WebSocket endpoint available at /ws")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop WebSocket hub
	wsHub.Stop()

	// Stop Kafka consumer
	if kafkaConsumer != nil {
		if err := kafkaConsumer.Stop(); err != nil {
			logger.Error("failed to stop Kafka consumer", "error", err)
		}
	}

	// Stop rebuild worker
	if rebuildWorker != nil {
		if err := rebuildWorker.Stop(); err != nil {
			logger.Error("failed to stop rebuild worker", "error", err)
		}
	}

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	}

	logger.Info("server stopped")
}
