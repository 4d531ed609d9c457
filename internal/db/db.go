// Package db opens the backing database and applies migrations. The
// store works against postgres in production and sqlite for local
// development and tests.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"quorum/api/internal/config"
)

// Open returns a *sql.DB for the configured driver.
func Open(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		return openPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		return openSQLite(ctx, cfg.DBPath)
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", cfg.DBDriver)
	}
}
