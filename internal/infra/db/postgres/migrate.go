package postgres

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStepUp = "step-up"
	MigrateDrop   = "drop"
)

var ErrUnknownMigration = errors.New("postgres: unknown migration action")

// Migrate applies the embedded schema migrations. down rolls back one step, drop rolls back all.
func Migrate(dsn, action string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("postgres: open migrations: %w", err)
	}
	mig, err := migrate.NewWithSourceInstance("iofs", src, dsn)
	if err != nil {
		return fmt.Errorf("postgres: create migrate instance: %w", err)
	}
	defer mig.Close()

	switch action {
	case MigrateUp:
		err = mig.Up()
	case MigrateDown:
		err = mig.Steps(-1)
	case MigrateStepUp:
		err = mig.Steps(1)
	case MigrateDrop:
		err = mig.Down()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMigration, action)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: migrate %s: %w", action, err)
	}
	version, dirty, verr := mig.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("postgres: read version: %w", verr)
	}
	logger.Info("database migrations applied", "action", action, "version", version, "dirty", dirty)
	return nil
}
