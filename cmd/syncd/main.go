// Command syncd runs the edX-to-NodeBB synchronization service: a lifecycle
// event receiver, the event bridge, and the job queue workers that execute
// sync actions against the NodeBB Write API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/edly-io/nodebb-sync/internal/api/handlers"
	"github.com/edly-io/nodebb-sync/internal/api/middleware"
	"github.com/edly-io/nodebb-sync/internal/bridge"
	"github.com/edly-io/nodebb-sync/internal/config"
	"github.com/edly-io/nodebb-sync/internal/lifecycle"
	"github.com/edly-io/nodebb-sync/internal/models"
	"github.com/edly-io/nodebb-sync/internal/observability"
	"github.com/edly-io/nodebb-sync/internal/repository"
	"github.com/edly-io/nodebb-sync/internal/tasks"
	"github.com/edly-io/nodebb-sync/internal/workers"
	"github.com/edly-io/nodebb-sync/pkg/cache"
	"github.com/edly-io/nodebb-sync/pkg/database"
	"github.com/edly-io/nodebb-sync/pkg/nodebb"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config. The handler also injects
	// request and trace ids from the context into every record.
	slog.SetDefault(observability.NewLogger(cfg.LogLevel))

	// Initialize database connection
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Metrics (Prometheus exporter behind OpenTelemetry)
	meterProvider, metricsHandler, metrics, err := observability.NewMeterProvider(ctx, observability.MeterProviderConfig{})
	if err != nil {
		slog.Error("Failed to create meter provider", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := meterProvider.Shutdown(context.Background()); err != nil {
			slog.Error("Failed to shutdown meter provider", "error", err)
		}
	}()

	// NodeBB Write API client
	forumClient := nodebb.NewClient(nodebb.ClientOptions{
		BaseURL:           cfg.NodeBBURL,
		Token:             cfg.NodeBBAPIToken,
		ActingUID:         cfg.NodeBBAdminUID,
		RequestsPerSecond: cfg.NodeBBRateLimitRPS,
	})

	// Link store with cached uid and category lookups
	linksRepo := repository.NewLinksRepository(db)

	uidCache, err := cache.NewLoaderCache[string, int64](cfg.LinkCacheSize, func(k string) string { return k })
	if err != nil {
		slog.Error("Failed to create uid cache", "error", err)
		os.Exit(1)
	}

	categoryCache, err := cache.NewLoaderCache[string, *models.CategoryLink](cfg.LinkCacheSize, func(k string) string { return k })
	if err != nil {
		slog.Error("Failed to create category cache", "error", err)
		os.Exit(1)
	}

	links := repository.NewCachingLinksStore(linksRepo, uidCache, categoryCache)

	// River job queue and sync workers
	riverClient, err := initRiver(cfg, db, forumClient, links, metrics)
	if err != nil {
		slog.Error("Failed to initialize job queue", "error", err)
		os.Exit(1)
	}

	if err := riverClient.Start(ctx); err != nil {
		slog.Error("Failed to start job queue", "error", err)
		os.Exit(1)
	}

	// Lifecycle publisher and event bridge
	publisher := lifecycle.NewPublisher(metrics)

	inserter := tasks.NewRetryingTaskInserter(
		tasks.NewRiverTaskInserter(riverClient, cfg.SyncMaxAttempts),
		tasks.RetryingTaskInserterConfig{
			MaxRetries: cfg.EnqueueMaxRetries,
			Metrics:    metrics,
		},
	)

	eventBridge := bridge.New(inserter, metrics)
	eventBridge.Register(publisher)

	// HTTP receiver
	verifySignature, err := middleware.VerifySignature(cfg.WebhookSigningSecret)
	if err != nil {
		slog.Error("Failed to create signature middleware", "error", err)
		os.Exit(1)
	}

	healthHandler := handlers.NewHealthHandler(db)
	lifecycleHandler := handlers.NewLifecycleHandler(publisher)

	publicMux := http.NewServeMux()
	publicMux.HandleFunc("GET /health", healthHandler.Check)
	publicMux.Handle("GET /metrics", metricsHandler)

	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /v1/events", lifecycleHandler.HandleEvent)

	var protectedHandler http.Handler = protectedMux
	protectedHandler = verifySignature(protectedHandler)

	mainMux := http.NewServeMux()
	mainMux.Handle("/v1/", protectedHandler)
	mainMux.Handle("/", publicMux) // Catch-all for public routes (/health, /metrics)

	handler := middleware.RequestID(mainMux)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Stop accepting new HTTP requests
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// 2. Drain the lifecycle event buffer so buffered events still enqueue
	publisher.Shutdown()

	// 3. Stop River (waits for in-flight jobs to complete)
	slog.Info("Stopping job queue...")
	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("Job queue forced to shutdown", "error", err)
	}
	slog.Info("Job queue stopped")

	slog.Info("Server exited")
}

// initRiver initializes the River job queue client and sync workers
func initRiver(
	cfg *config.Config,
	db *pgxpool.Pool,
	forumClient workers.ForumAPI,
	links repository.LinksStore,
	metrics observability.SyncMetrics,
) (*river.Client[pgx.Tx], error) {
	riverWorkers := river.NewWorkers()
	river.AddWorker(riverWorkers, workers.NewUserCreateWorker(forumClient, links, metrics))
	river.AddWorker(riverWorkers, workers.NewUserUpdateWorker(forumClient, links, metrics))
	river.AddWorker(riverWorkers, workers.NewUserDeleteWorker(forumClient, links, metrics))
	river.AddWorker(riverWorkers, workers.NewCategoryCreateWorker(forumClient, links, metrics))
	river.AddWorker(riverWorkers, workers.NewCategoryDeleteWorker(forumClient, links, metrics))
	river.AddWorker(riverWorkers, workers.NewGroupJoinWorker(forumClient, links, metrics))
	river.AddWorker(riverWorkers, workers.NewGroupUnjoinWorker(forumClient, links, metrics))

	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			tasks.QueueName: {MaxWorkers: cfg.SyncMaxConcurrent},
		},
		Workers: riverWorkers,
	})
	if err != nil {
		return nil, fmt.Errorf("create river client: %w", err)
	}

	return riverClient, nil
}
