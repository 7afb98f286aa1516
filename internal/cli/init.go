// Package cli provides common initialization for the tally binary:
// logging, .env loading, config validation and store setup.
package cli

import (
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/storage"
)

// SetupLogger initializes structured logging at the given level, tags every
// line with a run id for correlating one invocation, and installs the
// logger as the process default.
func SetupLogger(level string) *applog.Logger {
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(level),
		Component: applog.ComponentApp,
	}).With(applog.FieldRunID, uuid.NewString())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens (creating and seeding if needed) the ledger database.
// Returns the repository or exits the process on failure.
func InitStore(logger *applog.Logger, cfg *config.Config) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(cfg.DBPath, cfg.Span(), cfg.Methods)
	if err != nil {
		logger.Error("Failed to open ledger database",
			applog.FieldError, err, applog.FieldDBPath, cfg.DBPath)
		os.Exit(1)
	}
	return repo
}
