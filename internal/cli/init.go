// Package cli carries the startup sequence shared by the fintrack binaries:
// environment loading, the default logger, configuration and the SQLite
// store. Both binaries fail fast here; once main is past Bootstrap and
// OpenDatabase it can assume a usable process.
package cli

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"fintrack/internal/config"
	"fintrack/internal/storage"
)

// Bootstrap loads a local .env file when one exists, installs the default
// text logger and returns the validated configuration. The process exits on
// an invalid configuration; nothing downstream can recover from one.
func Bootstrap() (*slog.Logger, *config.Config) {
	// Optional: production deployments set real environment variables.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Refusing to start with invalid configuration", "error", err)
		os.Exit(1)
	}
	return logger, cfg
}

// OpenDatabase opens the SQLite store at path, running any pending
// migrations, and exits the process when the store is unusable.
func OpenDatabase(logger *slog.Logger, path string) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(path)
	if err != nil {
		logger.Error("Cannot open fintrack database", "error", err, "path", path)
		os.Exit(1)
	}
	logger.Info("Database ready", "path", path)
	return repo
}
