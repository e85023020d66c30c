package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/vocdrill/internal/infrastructure/config"
	"github.com/eslsoft/vocdrill/internal/infrastructure/database/migrate"
)

// NewEntDriver opens the configured database and wraps it in an ent SQL driver.
// Repositories build their statements with the driver's dialect.
func NewEntDriver(cfg *config.Config, logger *logrus.Logger) (*entsql.Driver, func(), error) {
	driver, err := cfg.DatabaseDriver()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database driver: %w", err)
	}
	dsn, err := cfg.DatabaseURL()
	if err != nil {
		return nil, nil, fmt.Errorf("determine database dsn: %w", err)
	}
	return Open(driver, dsn, cfg.Database.LogSQL, logger)
}

// Open connects to dsn with the named driver ("sqlite3" or "postgres").
func Open(driver, dsn string, logSQL bool, logger logrus.FieldLogger) (*entsql.Driver, func(), error) {
	switch driver {
	case "postgres":
		db, err := openPostgres(dsn, logSQL, logger)
		if err != nil {
			return nil, nil, err
		}
		drv := entsql.OpenDB(dialect.Postgres, db)
		return drv, func() { _ = drv.Close() }, nil
	case "sqlite3":
		db, err := openSQLite(dsn)
		if err != nil {
			return nil, nil, err
		}
		drv := entsql.OpenDB(dialect.SQLite, db)
		return drv, func() { _ = drv.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates every engine table.
func Migrate(ctx context.Context, drv *entsql.Driver) error {
	if err := migrate.Create(ctx, drv); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
