// Package main applies database migrations to DATABASE_URL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/archon-research/recruitment/db/migrator"
	"github.com/archon-research/recruitment/internal/adapters/outbound/postgres"
	"github.com/archon-research/recruitment/internal/pkg/env"
)

func main() {
	list := flag.Bool("list", false, "List applied migrations after applying")
	flag.Parse()

	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	logger := env.NewLogger(os.Stdout, slog.LevelInfo)

	connStr := env.Get("DATABASE_URL", "")
	if connStr == "" {
		logger.Error("required environment variable not set", "key", "DATABASE_URL")
		os.Exit(1)
	}
	migrationsDir := env.Get("MIGRATIONS_DIR", "./db/migrations")

	ctx := context.Background()

	pool, err := postgres.OpenPool(ctx, postgres.DefaultDBConfig(connStr))
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	m := migrator.New(pool, migrationsDir, logger)
	if err := m.ApplyAll(ctx); err != nil {
		logger.Error("migration failed", "error", err)
		pool.Close()
		os.Exit(1)
	}

	if *list {
		applied, err := m.ListApplied(ctx)
		if err != nil {
			logger.Error("failed to list migrations", "error", err)
			pool.Close()
			os.Exit(1)
		}
		for _, filename := range applied {
			logger.Info("applied", "file", filename)
		}
	}

	logger.Info("all migrations up to date", "dir", migrationsDir)
}
