package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cardbank/transfer_core/internal/core/services"
	"github.com/cardbank/transfer_core/internal/platform/config"
	"github.com/cardbank/transfer_core/internal/repositories/cache"
	"github.com/cardbank/transfer_core/internal/repositories/database/pgsql"
	"github.com/cardbank/transfer_core/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established")

	if err := runMigrations(logger, cfg.DatabaseURL); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)

	accountCache, err := cache.NewCachedAccountRepository(repos.AccountRepo, cfg.AccountCacheSize)
	if err != nil {
		logger.Error("Failed to initialize account cache", slog.String("error", err.Error()))
		os.Exit(1)
	}
	repos.AccountRepo = accountCache

	container := services.NewServicesContainer(repos, accountCache, services.ServicesConfig{
		CardNumberMaxAttempts: cfg.CardNumberMaxAttempts,
		TransferMaxRetries:    cfg.TransferMaxRetries,
	})
	_ = container // Consumed by the transport layer of the embedding application

	logger.Info("Transfer core initialized",
		slog.Bool("production", cfg.IsProduction),
		slog.Int("account_cache_size", cfg.AccountCacheSize),
		slog.Int("transfer_max_retries", cfg.TransferMaxRetries),
	)

	// Block until asked to stop.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	logger.Info("Shutting down", slog.String("signal", sig.String()))
	// The core has no in-flight operation tracking of its own (the embedding
	// transport owns request draining), so the grace period before the pool
	// closes is a fixed SHUTDOWN_TIMEOUT wait rather than an early-exit drain.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	<-shutdownCtx.Done()
}

// runMigrations applies all pending "up" migrations using a temporary
// database/sql connection over the pgx stdlib driver.
func runMigrations(logger *slog.Logger, databaseURL string) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply")
	} else {
		logger.Info("Migrations applied successfully")
	}
	return nil
}
