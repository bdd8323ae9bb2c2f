package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const (
	maxIdleConnections = 5
	driverName         = "postgres"
)

type ClientConfig struct {
	DSN          string
	MaxRetry     int
	RetryWait    time.Duration
	MaxOpenConns int
}

// Connect opens a pool and retries until the server answers or the attempts run out.
func Connect(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	attempts := cfg.MaxRetry
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		db, err := sqlx.ConnectContext(ctx, driverName, cfg.DSN)
		if err == nil {
			db.SetMaxIdleConns(maxIdleConnections)
			if cfg.MaxOpenConns > 0 {
				db.SetMaxOpenConns(cfg.MaxOpenConns)
			}
			logger.Info("connected to postgres", "attempt", attempt+1)
			return db, nil
		}
		lastErr = err
		logger.Error("failed connecting to postgres, retrying", "attempt", attempt+1, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.RetryWait):
		}
	}
	return nil, fmt.Errorf("postgres: connect: %w", lastErr)
}
