package db

import (
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"quorum/api/migrations"
)

// Migrate applies all pending goose migrations from the embedded FS.
func Migrate(db *sql.DB, driver string) error {
	goose.SetBaseFS(migrations.FS)
	dialect := driver
	if dialect == "sqlite" {
		dialect = "sqlite3"
	}
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}
