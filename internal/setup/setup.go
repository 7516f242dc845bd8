// Package setup wires the configuration, logging, storage and transport
// dependencies shared by every command.
package setup

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/disgoorg/disgo/rest"
	"github.com/redis/rueidis"
	"github.com/robalyx/antiraid/internal/database"
	"github.com/robalyx/antiraid/internal/redis"
	"github.com/robalyx/antiraid/internal/setup/config"
	"github.com/robalyx/antiraid/internal/setup/telemetry"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.uber.org/zap"
)

// ErrPendingMigrations is returned when the database schema is behind the binary.
var ErrPendingMigrations = errors.New("database migrations are pending")

// App bundles all core dependencies and services needed by the application.
// Each field represents a major subsystem that needs initialization and cleanup.
type App struct {
	Config       *config.Config     // Application configuration
	Logger       *zap.Logger        // Main application logger
	DBLogger     *zap.Logger        // Database-specific logger
	DB           database.Client    // Database connection pool
	RedisManager *redis.Manager     // Redis connection manager
	EventClient  rueidis.Client     // Redis client carrying event envelopes
	Discord      rest.Rest          // Discord REST client, nil without a token
	LogManager   *telemetry.Manager // Log management system
	tracing      bool
}

// InitializeApp bootstraps all application dependencies in the correct order,
// ensuring each component has its required dependencies available.
func InitializeApp(ctx context.Context, serviceType telemetry.ServiceType, logDir string) (*App, error) {
	cfg, _, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// Tracing is configured before the loggers so the error core has an exporter
	tracing := cfg.Common.Uptrace.DSN != ""
	if tracing {
		uptrace.ConfigureOpentelemetry(
			uptrace.WithDSN(cfg.Common.Uptrace.DSN),
			uptrace.WithServiceName(cfg.Common.Uptrace.ServiceName+"-"+serviceType.String()),
			uptrace.WithServiceVersion(config.RepositoryVersion),
			uptrace.WithDeploymentEnvironment(cfg.Common.Uptrace.Environment),
		)
	}

	logManager := telemetry.NewManager(serviceType, logDir, &cfg.Common.Debug, tracing)

	logger, dbLogger, err := logManager.GetLoggers()
	if err != nil {
		return nil, err
	}

	redisManager := redis.NewManager(&cfg.Common.Redis, logger)

	eventClient, err := redisManager.GetClient(redis.EventsDBIndex)
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	db, err := connectDatabase(ctx, &cfg.Common.PostgreSQL, dbLogger.Named("database"))
	if err != nil {
		redisManager.Close()
		return nil, err
	}

	var discordClient rest.Rest
	if cfg.Common.Discord.Token != "" {
		discordClient = rest.New(rest.NewClient(cfg.Common.Discord.Token))
	} else {
		logger.Warn("No Discord token configured, moderation actions are disabled")
	}

	logger.Info("Application initialized",
		zap.String("service", serviceType.String()),
		zap.Bool("tracing", tracing))

	return &App{
		Config:       cfg,
		Logger:       logger,
		DBLogger:     dbLogger.Named("database"),
		DB:           db,
		RedisManager: redisManager,
		EventClient:  eventClient,
		Discord:      discordClient,
		LogManager:   logManager,
		tracing:      tracing,
	}, nil
}

// Cleanup ensures graceful shutdown of all components in reverse initialization order.
// Logs but does not fail on cleanup errors to ensure all components get cleanup attempts.
func (s *App) Cleanup(ctx context.Context) {
	if s.Discord != nil {
		s.Discord.Close(ctx)
	}

	if err := s.DB.Close(); err != nil {
		log.Printf("Failed to close database connection: %v", err)
	}

	// Close Redis connections last as other components might need it during cleanup
	s.RedisManager.Close()

	if s.tracing {
		if err := uptrace.Shutdown(ctx); err != nil {
			log.Printf("Failed to flush traces: %v", err)
		}
	}

	// Sync buffered logs before shutdown
	if err := s.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	if err := s.DBLogger.Sync(); err != nil {
		log.Printf("Failed to sync DB logger: %v", err)
	}
}

// connectDatabase opens the database and refuses to continue with pending migrations.
func connectDatabase(ctx context.Context, cfg *config.PostgreSQL, dbLogger *zap.Logger) (database.Client, error) {
	db, err := database.NewConnection(ctx, cfg, dbLogger, false)
	if err != nil {
		return nil, err
	}

	pending, err := db.PendingMigrations(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	if len(pending) > 0 {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %d unapplied, run `db migrate` first", ErrPendingMigrations, len(pending))
	}

	return db, nil
}
