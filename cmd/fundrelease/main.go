/**
 * @description
 * This is the main entry point for the fund-release engine. It initializes
 * configuration, the database connection pool, the payment-processor client,
 * the RabbitMQ alert producer, the cron scheduler for the two batches, and
 * the internal HTTP server, then runs until a termination signal arrives.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: PostgreSQL driver and pool.
 * - github.com/robfig/cron/v3 (via internal/app): batch scheduling.
 * - github.com/go-chi/chi/v5 (via internal/api): HTTP routing.
 * - pkg/stripeclient: Client for the payment-processor API.
 * - pkg/rabbitmq: Alert event producer.
 */

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/api"
	"github.com/rodrigobarona/eleva-care-app-sub018/internal/app"
	"github.com/rodrigobarona/eleva-care-app-sub018/internal/config"
	"github.com/rodrigobarona/eleva-care-app-sub018/internal/store"
	"github.com/rodrigobarona/eleva-care-app-sub018/pkg/rabbitmq"
	"github.com/rodrigobarona/eleva-care-app-sub018/pkg/stripeclient"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Local development convenience; ignored when no .env file exists.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Establish database connection with connection pool configuration
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = 20
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	// Disable prepared statement caching to prevent conflicts
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	dbpool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Alert events degrade to a logging fallback when the broker is down;
	// the ledger contract says alerting must never block fund release.
	var events rabbitmq.Publisher
	producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
	if err != nil {
		logger.Warn("rabbitmq producer unavailable; using fallback", "error", err)
		events = &rabbitmq.EventProducerFallback{}
	} else {
		defer producer.Close()
		events = producer
		logger.Info("rabbitmq producer connected")
	}

	// Initialize dependencies
	repository := store.NewRepository(dbpool)
	processor := stripeclient.NewClient(cfg.StripeAPIBaseURL, cfg.StripeAPIKey)
	evaluator := app.NewEvaluator(app.NewDelayPolicy())
	ledger := app.NewLedger(repository, events, logger)
	jobs := app.NewJobs(repository, processor, evaluator, ledger, logger)
	scheduler := app.NewScheduler(jobs, logger, *cfg)

	// Start the cron scheduler in the background
	scheduler.Start()
	logger.Info("scheduler started")

	router := api.NewRouter(api.NewHandler(jobs), cfg.InternalAPIKey)
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}
	go func() {
		logger.Info("http server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for termination signal to gracefully shut down
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received, stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
	}

	stopCtx := scheduler.Stop()
	<-stopCtx.Done() // Wait for any in-flight batch to finish
	logger.Info("scheduler stopped gracefully")
}
