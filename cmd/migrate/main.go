package main

import (
	"os"

	"staycal/internal/infra/config"
	"staycal/internal/infra/db/postgres"
	"staycal/internal/infra/obs"
)

const argLength = 2

func main() {
	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if len(os.Args) < argLength {
		logger.Error("migration action is required: up, down, step-up or drop")
		os.Exit(2)
	}
	if cfg.Postgres.DSN == "" {
		logger.Error("POSTGRES_DSN is required")
		os.Exit(1)
	}
	if err := postgres.Migrate(cfg.Postgres.DSN, os.Args[1], logger); err != nil {
		logger.Error("migration failed", "action", os.Args[1], "error", err)
		os.Exit(1)
	}
}
