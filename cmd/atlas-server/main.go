// Package main is the entry point for the Minerals Atlas server, the
// backend of a dashboard over African critical-minerals production data.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/afrominerals/atlas/internal/cache/memory"
	rediscache "github.com/afrominerals/atlas/internal/cache/redis"
	"github.com/afrominerals/atlas/internal/config"
	"github.com/afrominerals/atlas/internal/dataset"
	"github.com/afrominerals/atlas/internal/handler"
	"github.com/afrominerals/atlas/internal/metrics"
	"github.com/afrominerals/atlas/internal/repository"
	"github.com/afrominerals/atlas/internal/repository/postgres"
	"github.com/afrominerals/atlas/internal/repository/sqlite"
	"github.com/afrominerals/atlas/internal/service"
	"github.com/afrominerals/atlas/internal/sources"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Minerals Atlas server")

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// User store
	userRepo, dbHealth, err := newUserRepository(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open user store: %w", err)
	}
	defer dbHealth.Close()

	// Session cache
	sessionCache, closeCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return fmt.Errorf("failed to open session cache: %w", err)
	}
	defer closeCache()

	// Source store and dataset
	sourceStore, err := newSourceStore(ctx, cfg.Sources)
	if err != nil {
		return fmt.Errorf("failed to open source store: %w", err)
	}
	datasetRepo := dataset.NewRepository(sourceStore, logger)

	// Metrics
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// Services
	userService := service.NewUserService(userRepo, cfg.Auth.AdminSecret, logger)
	if err := userService.EnsureSeedAdmin(ctx, cfg.Auth.SeedAdminPassword); err != nil {
		return fmt.Errorf("failed to seed administrator: %w", err)
	}

	sessionService := service.NewSessionService(userService, sessionCache, cfg.Auth.SessionTTL, logger)

	datasetService := service.NewDatasetService(datasetRepo, reloadCounter(m), logger)
	insightService := service.NewInsightService(datasetService, logger)

	// Initial dataset load; missing or malformed sources degrade to empty
	// tables, so a failure here is only a context cancellation.
	if _, err := datasetRepo.Reload(ctx); err != nil {
		return fmt.Errorf("failed initial dataset load: %w", err)
	}

	// Handlers
	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler: handler.NewAuthHandler(handler.AuthConfig{
			UserService:    userService,
			SessionService: sessionService,
			SessionTTL:     cfg.Auth.SessionTTL,
			LoginAttempts:  loginCounter(m),
			Logger:         logger,
		}),
		DashboardHandler: handler.NewDashboardHandler(handler.DashboardConfig{
			DatasetService: datasetService,
			InsightService: insightService,
			Logger:         logger,
		}),
		AdminHandler: handler.NewAdminHandler(handler.AdminConfig{
			UserService:    userService,
			DatasetService: datasetService,
			MaxUploadSize:  cfg.Server.MaxUploadSize,
			Logger:         logger,
		}),
		SessionService: sessionService,
		Metrics:        m,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	var metricsServer *http.Server
	if m != nil {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server failed: %w", err)
			}
		}()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

// newLogger builds the root logger from config. The console format is
// meant for local development; production deployments log JSON.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// newUserRepository opens the configured user store backend.
func newUserRepository(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (repository.UserRepository, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, postgres.Config{
			Host:            cfg.Host,
			Port:            cfg.Port,
			User:            cfg.User,
			Password:        cfg.Password,
			Database:        cfg.Database,
			SSLMode:         cfg.SSLMode,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserRepository(db), db, nil
	default:
		sqliteCfg := sqlite.DefaultConfig(cfg.Path)
		if cfg.JournalMode != "" {
			sqliteCfg.JournalMode = cfg.JournalMode
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.SynchronousMode != "" {
			sqliteCfg.SynchronousMode = cfg.SynchronousMode
		}
		db, err := sqlite.NewDB(ctx, sqliteCfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewUserRepository(db), db, nil
	}
}

// newCache opens the configured session cache backend.
func newCache(ctx context.Context, cfg config.CacheConfig, logger zerolog.Logger) (repository.Cache, func(), error) {
	switch cfg.Backend {
	case "redis":
		cache, err := rediscache.NewCache(ctx, rediscache.Config{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return cache, func() { _ = cache.Close() }, nil
	default:
		cache := memory.NewCache()
		return cache, cache.Stop, nil
	}
}

// newSourceStore opens the configured source-file backend.
func newSourceStore(ctx context.Context, cfg config.SourcesConfig) (sources.Store, error) {
	switch cfg.Backend {
	case "s3":
		return sources.NewS3Store(ctx, sources.S3Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
		})
	default:
		return sources.NewFilesystemStore(cfg.DataDir)
	}
}

// reloadCounter extracts the dataset reload counter, nil when metrics are
// disabled.
func reloadCounter(m *metrics.Metrics) prometheus.Counter {
	if m == nil {
		return nil
	}
	return m.DatasetReloads
}

// loginCounter extracts the login attempt counter, nil when metrics are
// disabled.
func loginCounter(m *metrics.Metrics) *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.LoginAttempts
}
