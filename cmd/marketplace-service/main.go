package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/draftea/nft-marketplace/marketplace-service/config"
	"github.com/draftea/nft-marketplace/marketplace-service/handlers"
	"github.com/draftea/nft-marketplace/marketplace-service/infrastructure"
	"github.com/draftea/nft-marketplace/shared/logging"
	"github.com/draftea/nft-marketplace/shared/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func main() {
	cmd := &cli.Command{
		Name:  "marketplace-service",
		Usage: "NFT marketplace service",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP server and the chain confirmation subscriber",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return serve(ctx)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return migrate(ctx)
				},
			},
		},
		DefaultCommand: "serve",
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("marketplace-service: %v", err)
	}
}

func serve(ctx context.Context) error {
	// Load configuration
	cfg, err := config.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize dependencies
	deps, err := config.BuildDependencies(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			log.Printf("Error closing dependencies: %v", err)
		}
	}()

	logger := deps.Logger
	logger.Info("starting service",
		zap.String("env", cfg.Env),
		zap.String("port", cfg.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("queue_driver", cfg.Queue.Driver),
	)

	// Start chain confirmation subscriber
	if deps.EventSubscriber != nil {
		if err := deps.EventSubscriber.Start(ctx); err != nil {
			return fmt.Errorf("failed to start event subscriber: %w", err)
		}
	}

	// Setup and start HTTP server
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(deps),
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if deps.EventSubscriber != nil {
		if err := deps.EventSubscriber.Stop(shutdownCtx); err != nil {
			logger.Warn("event subscriber did not stop cleanly", zap.Error(err))
		}
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("service stopped")
	return nil
}

func migrate(ctx context.Context) error {
	cfg, err := config.ReadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(logging.Config{
		Environment: logging.Environment(cfg.Env),
		Level:       cfg.LogLevel,
		ServiceName: cfg.ServiceName,
	})
	if err != nil {
		return err
	}
	defer logger.Sync()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return infrastructure.Migrate(db, cfg.Database.Database, logger)
}

func setupRouter(deps *config.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// Telemetry middleware (inject telemetry into context)
	if deps.Telemetry != nil {
		r.Use(telemetry.Middleware(deps.Telemetry))
	}

	// Health check
	r.Handle("/health", handlers.NewHealthHandler(deps.HealthChecks))

	// Metrics endpoint for Prometheus
	r.Handle("/metrics", handlers.NewMetricsHandler())

	// Register marketplace routes
	deps.MarketplaceHandlers.RegisterRoutes(r)

	return r
}
