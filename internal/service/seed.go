package service

import (
	"context"
	"fmt"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// Seed inserts the configured users and items into an empty store.
// Seed ids only link items to owners; stored ids are assigned by the store.
func Seed(ctx context.Context, repo domain.Repository, seed config.SeedConfig, logger *zerolog.Logger) error {
	if len(seed.Users) == 0 {
		return nil
	}

	existing, err := repo.GetAllUsers(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Debug().Int("users", len(existing)).Msg("store not empty, seed skipped")
		return nil
	}

	userIDs := make(map[int64]int64, len(seed.Users))
	for _, u := range seed.Users {
		user := models.User{Name: u.Name, Email: u.Email}
		if err := repo.CreateUser(ctx, &user); err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
		userIDs[u.ID] = user.ID
	}

	for _, it := range seed.Items {
		ownerID, ok := userIDs[it.OwnerID]
		if !ok {
			return fmt.Errorf("seed item %d: unknown owner %d", it.ID, it.OwnerID)
		}
		item := models.Item{
			Name:        it.Name,
			Description: it.Description,
			Available:   it.Available,
			OwnerID:     ownerID,
		}
		if err := repo.CreateItem(ctx, &item); err != nil {
			return fmt.Errorf("seed item %d: %w", it.ID, err)
		}
	}

	logger.Info().Int("users", len(seed.Users)).Int("items", len(seed.Items)).Msg("store seeded")
	return nil
}
