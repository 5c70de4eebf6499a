package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

type dialect string

const (
	dialectPostgres dialect = "postgres"
	dialectSQLite   dialect = "sqlite3"
)

// goose keeps its base FS and dialect in package state
var migrateMu sync.Mutex

// runMigrations applies embedded SQL migrations via goose. If database is nil, it's a no-op.
func runMigrations(ctx context.Context, database *sql.DB, d dialect) error {
	if database == nil {
		return nil
	}

	dir := "migrations/postgres"
	if d == dialectSQLite {
		dir = "migrations/sqlite"
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationFiles)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(d)); err != nil {
		return fmt.Errorf("failed to set migration dialect %s: %w", d, err)
	}
	if err := goose.UpContext(ctx, database, dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
