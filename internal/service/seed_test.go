package service

import (
	"context"
	"testing"

	"shareit/internal/config"
	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	logger := zerolog.Nop()
	store := repository.NewMemoryStore()

	seed := config.SeedConfig{
		Users: []models.User{
			{ID: 10, Name: "Owner", Email: "owner@example.com"},
			{ID: 20, Name: "Renter", Email: "renter@example.com"},
		},
		Items: []models.Item{
			{ID: 1, Name: "Drill", Description: "Cordless", Available: true, OwnerID: 20},
		},
	}

	require.NoError(t, Seed(ctx, store, seed, &logger))

	users, err := store.GetAllUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	items, err := store.GetItemsByOwner(ctx, users[1].ID, models.Page{Size: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Drill", items[0].Name)

	// second run is a no-op
	require.NoError(t, Seed(ctx, store, seed, &logger))
	users, err = store.GetAllUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	assert.NoError(t, Seed(ctx, repository.NewMemoryStore(), config.SeedConfig{}, &logger))
}
