package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	ctx := context.Background()
	s, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_GetMissingReturnsNil(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetPrompt(context.Background(), "profile_extraction")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_UpsertIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.UpsertPrompt(ctx, &PromptTemplate{
		Name: "cv_generation", Body: "Write a CV for {name}", Description: "cv", UpdatedAt: first,
	}))
	require.NoError(t, s.UpsertPrompt(ctx, &PromptTemplate{
		Name: "cv_generation", Body: "Write a CV for {name}",
	}))

	got, err := s.GetPrompt(ctx, "cv_generation")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Write a CV for {name}", got.Body)
	assert.Equal(t, "cv", got.Description, "empty description keeps the stored one")
	assert.True(t, got.UpdatedAt.After(first))

	names, err := s.ListPromptNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cv_generation"}, names)
}

func TestSQLite_InsertIfMissingNeverOverwrites(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	inserted, err := s.InsertPromptIfMissing(ctx, &PromptTemplate{Name: "a", Body: "default"})
	require.NoError(t, err)
	assert.True(t, inserted)

	require.NoError(t, s.UpsertPrompt(ctx, &PromptTemplate{Name: "a", Body: "override"}))

	inserted, err = s.InsertPromptIfMissing(ctx, &PromptTemplate{Name: "a", Body: "default"})
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.GetPrompt(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "override", got.Body)
}

func TestSQLite_ListIsSorted(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for _, name := range []string{"technical_test_generation", "cv_generation", "profile_extraction"} {
		require.NoError(t, s.UpsertPrompt(ctx, &PromptTemplate{Name: name, Body: "x"}))
	}

	names, err := s.ListPromptNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"cv_generation", "profile_extraction", "technical_test_generation"}, names)
}

func TestSQLite_RejectsEmptyName(t *testing.T) {
	s := newTestSQLite(t)

	err := s.UpsertPrompt(context.Background(), &PromptTemplate{Body: "x"})
	assert.Error(t, err)
}

func TestOpen_SQLiteFileWithMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prompts.db")

	store, err := Open(ctx, StoreConfig{Driver: DriverSQLite, SQLitePath: path, AutoMigrate: true})
	require.NoError(t, err)
	require.NoError(t, store.UpsertPrompt(ctx, &PromptTemplate{Name: "x", Body: "y"}))
	require.NoError(t, store.Close())

	// reopening runs migrations again without error and keeps data
	store, err = Open(ctx, StoreConfig{Driver: DriverSQLite, SQLitePath: path, AutoMigrate: true})
	require.NoError(t, err)
	defer store.Close()

	got, err := store.GetPrompt(ctx, "x")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "y", got.Body)
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, StoreConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = Open(ctx, StoreConfig{Driver: "mongodb"})
	assert.ErrorContains(t, err, "unknown prompt store driver")

	_, err = Open(ctx, StoreConfig{Driver: DriverPostgres})
	assert.ErrorContains(t, err, "database url is required")
}
