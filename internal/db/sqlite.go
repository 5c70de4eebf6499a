package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLite is a single-file prompt store for local development
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database file at path.
// ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// one writer; also keeps an in-memory database alive across calls
	sqlDB.SetMaxOpenConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to configure sqlite (%s): %w", p, err)
		}
	}

	return &SQLite{db: sqlDB, path: path}, nil
}

// Close releases the underlying database handle
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Migrate applies the embedded SQLite migrations
func (s *SQLite) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db, dialectSQLite)
}

// GetPrompt retrieves a prompt template by name
func (s *SQLite) GetPrompt(ctx context.Context, name string) (*PromptTemplate, error) {
	var (
		t         PromptTemplate
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, body, description, updated_at FROM prompt_templates WHERE name = ?`,
		name,
	).Scan(&t.Name, &t.Body, &t.Description, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt %s: %w", name, err)
	}

	t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at for prompt %s: %w", name, err)
	}
	return &t, nil
}

// UpsertPrompt inserts or replaces the body of a prompt template
func (s *SQLite) UpsertPrompt(ctx context.Context, tmpl *PromptTemplate) error {
	if err := tmpl.validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prompt_templates (name, body, description, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET
		   body = excluded.body,
		   description = COALESCE(NULLIF(excluded.description, ''), prompt_templates.description),
		   updated_at = excluded.updated_at`,
		tmpl.Name, tmpl.Body, tmpl.Description, tmpl.updatedAtOrNow().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt %s: %w", tmpl.Name, err)
	}
	return nil
}

// InsertPromptIfMissing stores the template only when no record with that name exists
func (s *SQLite) InsertPromptIfMissing(ctx context.Context, tmpl *PromptTemplate) (bool, error) {
	if err := tmpl.validate(); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO prompt_templates (name, body, description, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		tmpl.Name, tmpl.Body, tmpl.Description, tmpl.updatedAtOrNow().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("failed to seed prompt %s: %w", tmpl.Name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// ListPromptNames returns the names of all stored templates in lexical order
func (s *SQLite) ListPromptNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM prompt_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan prompt name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prompt names: %w", err)
	}
	return names, nil
}
