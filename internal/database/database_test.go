package database

import (
	"context"
	"path/filepath"
	"testing"

	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.Equal(t, dbPath, db.Path())
}

func TestNewDB_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	logger := zerolog.Nop()
	ctx := context.Background()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	require.NoError(t, db.CreateUser(ctx, &models.User{Name: "Ann", Email: "ann@example.com"}))
	require.NoError(t, db.Close())

	// Migrations are already applied on the second open.
	db, err = NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestDB_Ping(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping(context.Background()))
}
