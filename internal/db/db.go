// Package db provides durable storage for prompt templates.
// PostgreSQL is the primary backend; SQLite serves local development.
package db

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// DefaultConnectTimeout bounds the initial connect-and-ping of a store
const DefaultConnectTimeout = 5 * time.Second

//go:generate mockgen -source=db.go -destination=mocks/mock_store.go -package=mocks

// PromptStore is the minimal get/put contract the prompt repository relies on.
// GetPrompt returns (nil, nil) when no record exists.
type PromptStore interface {
	GetPrompt(ctx context.Context, name string) (*PromptTemplate, error)
	UpsertPrompt(ctx context.Context, tmpl *PromptTemplate) error
	InsertPromptIfMissing(ctx context.Context, tmpl *PromptTemplate) (bool, error)
	ListPromptNames(ctx context.Context) ([]string, error)
	Close() error
}

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// Migrate applies the embedded PostgreSQL migrations
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer func() { _ = sqlDB.Close() }()
	return runMigrations(ctx, sqlDB, dialectPostgres)
}

// GetPrompt retrieves a prompt template by name
func (db *DB) GetPrompt(ctx context.Context, name string) (*PromptTemplate, error) {
	var t PromptTemplate
	err := db.pool.QueryRow(ctx,
		`SELECT name, body, description, updated_at
		 FROM prompt_templates WHERE name = $1`,
		name,
	).Scan(&t.Name, &t.Body, &t.Description, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prompt %s: %w", name, err)
	}
	return &t, nil
}

// UpsertPrompt inserts or replaces the body of a prompt template.
// The description of an existing record is kept unless a new one is given.
func (db *DB) UpsertPrompt(ctx context.Context, tmpl *PromptTemplate) error {
	if err := tmpl.validate(); err != nil {
		return err
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO prompt_templates (name, body, description, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO UPDATE SET
		   body = EXCLUDED.body,
		   description = COALESCE(NULLIF(EXCLUDED.description, ''), prompt_templates.description),
		   updated_at = EXCLUDED.updated_at`,
		tmpl.Name, tmpl.Body, tmpl.Description, tmpl.updatedAtOrNow(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert prompt %s: %w", tmpl.Name, err)
	}
	return nil
}

// InsertPromptIfMissing stores the template only when no record with that name exists.
// Returns true when a row was inserted.
func (db *DB) InsertPromptIfMissing(ctx context.Context, tmpl *PromptTemplate) (bool, error) {
	if err := tmpl.validate(); err != nil {
		return false, err
	}
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO prompt_templates (name, body, description, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO NOTHING`,
		tmpl.Name, tmpl.Body, tmpl.Description, tmpl.updatedAtOrNow(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to seed prompt %s: %w", tmpl.Name, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListPromptNames returns the names of all stored templates in lexical order
func (db *DB) ListPromptNames(ctx context.Context) ([]string, error) {
	rows, err := db.pool.Query(ctx, `SELECT name FROM prompt_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan prompt names: %w", err)
	}
	return names, nil
}

// ConnectionURL builds a PostgreSQL URL from discrete connection parts.
// Credentials are optional.
func ConnectionURL(host, port, username, password, database string) string {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + database,
	}
	switch {
	case username != "" && password != "":
		u.User = url.UserPassword(username, password)
	case username != "":
		u.User = url.User(username)
	}
	return u.String()
}

// RedactURL hides the password portion of a connection URL for logging
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable database url)"
	}
	return u.Redacted()
}
