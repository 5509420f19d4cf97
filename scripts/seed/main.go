package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// maxOwnerItems bounds the per-owner lookup used to match items by name.
const maxOwnerItems = 10000

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run upserts users (matched by email) and items (matched by owner and name)
// from a seed file into an existing database.
func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedPath = flag.String("seed", "configs/seed.yaml", "path to seed yaml with users and items")
		dbPath   = flag.String("db", "./data/shareit.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedPath)
	if err != nil {
		return fmt.Errorf("read seed: %w", err)
	}
	var seed config.SeedConfig
	if err = yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed: %w", err)
	}
	if err = config.ValidateSeed(seed); err != nil {
		return fmt.Errorf("validate seed: %w", err)
	}
	if len(seed.Users) == 0 {
		return fmt.Errorf("no users in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := apply(ctx, db, seed)
	if err != nil {
		return err
	}

	fmt.Printf("done: users created=%d updated=%d, items created=%d updated=%d\n",
		stats.usersCreated, stats.usersUpdated, stats.itemsCreated, stats.itemsUpdated)
	return nil
}

type seedStats struct {
	usersCreated, usersUpdated int
	itemsCreated, itemsUpdated int
}

func apply(ctx context.Context, db *database.DB, seed config.SeedConfig) (seedStats, error) {
	var stats seedStats

	existing, err := db.GetAllUsers(ctx)
	if err != nil {
		return stats, fmt.Errorf("list users: %w", err)
	}
	byEmail := make(map[string]*models.User, len(existing))
	for _, u := range existing {
		byEmail[strings.ToLower(u.Email)] = u
	}

	ownerIDs := make(map[int64]int64, len(seed.Users))
	for _, u := range seed.Users {
		if found, ok := byEmail[strings.ToLower(u.Email)]; ok {
			found.Name = u.Name
			if err = db.UpdateUser(ctx, found); err != nil {
				return stats, fmt.Errorf("update user %s: %w", u.Email, err)
			}
			ownerIDs[u.ID] = found.ID
			stats.usersUpdated++
			continue
		}

		user := models.User{Name: u.Name, Email: u.Email}
		if err = db.CreateUser(ctx, &user); err != nil {
			return stats, fmt.Errorf("create user %s: %w", u.Email, err)
		}
		ownerIDs[u.ID] = user.ID
		stats.usersCreated++
	}

	for _, it := range seed.Items {
		ownerID := ownerIDs[it.OwnerID]
		owned, err := db.GetItemsByOwner(ctx, ownerID, models.Page{From: 0, Size: maxOwnerItems})
		if err != nil {
			return stats, fmt.Errorf("list items of %d: %w", ownerID, err)
		}

		item := models.Item{Name: it.Name, Description: it.Description, Available: it.Available, OwnerID: ownerID}
		if found := findByName(owned, it.Name); found != nil {
			item.ID = found.ID
			if err = db.UpdateItem(ctx, &item); err != nil {
				return stats, fmt.Errorf("update %s: %w", it.Name, err)
			}
			stats.itemsUpdated++
			continue
		}

		if err = db.CreateItem(ctx, &item); err != nil {
			return stats, fmt.Errorf("create %s: %w", it.Name, err)
		}
		stats.itemsCreated++
	}
	return stats, nil
}

func findByName(items []*models.Item, name string) *models.Item {
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			return it
		}
	}
	return nil
}
