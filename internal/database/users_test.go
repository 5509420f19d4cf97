package database

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCRUD(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	user := &models.User{Name: "Ann", Email: "ann@example.com"}
	require.NoError(t, db.CreateUser(ctx, user))
	assert.NotZero(t, user.ID)

	got, err := db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	got.Name = "Anna"
	require.NoError(t, db.UpdateUser(ctx, got))

	got, err = db.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Anna", got.Name)

	require.NoError(t, db.DeleteUser(ctx, user.ID))
	_, err = db.GetUserByID(ctx, user.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserDuplicateEmail(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateUser(ctx, &models.User{Name: "Ann", Email: "ann@example.com"}))
	err := db.CreateUser(ctx, &models.User{Name: "Other", Email: "ann@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	bob := &models.User{Name: "Bob", Email: "bob@example.com"}
	require.NoError(t, db.CreateUser(ctx, bob))
	bob.Email = "ann@example.com"
	assert.ErrorIs(t, db.UpdateUser(ctx, bob), domain.ErrConflict)
}

func TestUserNotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.GetUserByID(ctx, 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, db.UpdateUser(ctx, &models.User{ID: 42, Name: "x", Email: "x@example.com"}), domain.ErrNotFound)
	assert.ErrorIs(t, db.DeleteUser(ctx, 42), domain.ErrNotFound)
}

func TestGetAllUsers(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	users, err := db.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, db.CreateUser(ctx, &models.User{Name: "A", Email: "a@example.com"}))
	require.NoError(t, db.CreateUser(ctx, &models.User{Name: "B", Email: "b@example.com"}))

	users, err = db.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "A", users[0].Name)
	assert.Equal(t, "B", users[1].Name)
}
