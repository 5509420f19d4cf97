package service

import (
	"context"
	"testing"

	"shareit/internal/domain"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	svc := NewUserService(repository.NewMemoryStore(), &logger)

	alice, err := svc.CreateUser(ctx, &models.User{Name: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)
	bob, err := svc.CreateUser(ctx, &models.User{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, &models.User{Name: "Eve", Email: "alice@example.com"})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("BlankName", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, &models.User{Name: "", Email: "x@example.com"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		updated, err := svc.UpdateUser(ctx, alice.ID, models.UserPatch{Name: ptr("Alicia")})
		require.NoError(t, err)
		assert.Equal(t, "Alicia", updated.Name)
		assert.Equal(t, "alice@example.com", updated.Email)
	})

	t.Run("UpdateToTakenEmail", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, bob.ID, models.UserPatch{Email: ptr("alice@example.com")})
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("UpdateUnknown", func(t *testing.T) {
		_, err := svc.UpdateUser(ctx, 999, models.UserPatch{Name: ptr("x")})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ListAndDelete", func(t *testing.T) {
		users, err := svc.GetAllUsers(ctx)
		require.NoError(t, err)
		assert.Len(t, users, 2)

		require.NoError(t, svc.DeleteUser(ctx, bob.ID))
		_, err = svc.GetUserByID(ctx, bob.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, svc.DeleteUser(ctx, bob.ID), domain.ErrNotFound)
	})
}
