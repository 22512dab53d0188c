// Package main provides the entry point for the article explorer HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/helixir/article-explorer/internal/config"
	"github.com/helixir/article-explorer/internal/database"
	"github.com/helixir/article-explorer/internal/observability"
	"github.com/helixir/article-explorer/internal/papersources"
	"github.com/helixir/article-explorer/internal/papersources/core"
	"github.com/helixir/article-explorer/internal/reading"
	"github.com/helixir/article-explorer/internal/repository"
	"github.com/helixir/article-explorer/internal/search"
	httpserver "github.com/helixir/article-explorer/internal/server/http"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Set up structured logging.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		AddSource:  cfg.Logging.AddSource,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	logger = logger.With().Str("component", "server").Logger()
	logger.Info().Msg("article-explorer server starting")

	// Set up context with graceful shutdown via OS signals.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	// Resolve the search provider.
	registry := papersources.NewRegistry()
	registry.Register(core.New(core.Config{
		BaseURL:    cfg.Search.BaseURL,
		APIKey:     cfg.Search.APIKey,
		Timeout:    cfg.Search.Timeout,
		RateLimit:  cfg.Search.RateLimit,
		BurstSize:  cfg.Search.BurstSize,
		MaxRetries: cfg.Search.MaxRetries,
	}))
	source, err := registry.Get(cfg.Search.Provider)
	if err != nil {
		return fmt.Errorf("resolve search provider (available: %v): %w", registry.Names(), err)
	}
	if !source.IsConfigured() {
		// Not fatal: the proxy answers with a configuration error per request.
		logger.Warn().Str("provider", source.Name()).Msg("search API key not configured")
	}
	searchSvc := search.NewService(source, metrics, logger)

	sessions := reading.NewManager(reading.ManagerConfig{
		IdleTTL:     cfg.Reading.IdleTTL,
		MaxSessions: cfg.Reading.MaxSessions,
		ReadingTime: cfg.Reading.EstimatedReadingTime(),
	})

	// Set up annotation storage.
	var (
		snapshots repository.AnnotationRepository
		health    httpserver.HealthChecker
	)
	if cfg.Storage.UsesPostgres() {
		db, err := openDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		snapshots = repository.NewPgAnnotationRepository(db)
		health = db
	} else {
		snapshots = repository.NewMemoryAnnotationRepository()
		logger.Info().Msg("using in-memory annotation storage")
	}

	httpCfg := httpserver.Config{
		Address:         cfg.Server.HTTPAddress(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		DefaultLimit:    cfg.Search.DefaultLimit,
	}
	httpSrv := httpserver.NewServer(httpCfg, searchSvc, sessions, snapshots, health, metrics, logger)

	// Set up Prometheus metrics handler on a separate port if configured.
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress(),
			Handler:      metricsMux,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}
	}

	// Channel to collect server errors.
	errCh := make(chan error, 2)

	go func() {
		if err := httpSrv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	if metricsServer != nil {
		go func() {
			logger.Info().
				Str("address", metricsServer.Addr).
				Msg("metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	readyLog := logger.Info().
		Str("http_address", httpCfg.Address).
		Str("provider", source.Name()).
		Str("storage", cfg.Storage.Backend)
	if metricsServer != nil {
		readyLog = readyLog.Str("metrics_address", metricsServer.Addr)
	}
	readyLog.Msg("article-explorer is ready")

	// Wait for shutdown signal or server error.
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	// Graceful shutdown.
	logger.Info().Msg("shutting down article-explorer")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown error")
		}
	}

	logger.Info().Int("open_sessions", sessions.Len()).Msg("article-explorer shutdown complete")
	return nil
}

// openDatabase connects to PostgreSQL and applies pending migrations when
// auto-run is enabled.
func openDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*database.DB, error) {
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("database connection established")

	if cfg.Database.MigrationAutoRun {
		if err := runMigrations(db, cfg.Database.MigrationPath, logger); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

func runMigrations(db *database.DB, path string, logger zerolog.Logger) error {
	migrator, err := database.NewMigrator(db, path, logger)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("failed to close migrator")
		}
	}()

	if err := migrator.Up(); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
