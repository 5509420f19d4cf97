package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentDecisions(t *testing.T) {
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "concurrency.db"), &logger)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	owner := createUser(t, db, "owner")
	booker := createUser(t, db, "booker")
	item := createItem(t, db, owner.ID, "Drill", true)

	start := time.Now().Add(24 * time.Hour)
	booking := &models.Booking{Start: start, End: start.Add(time.Hour), ItemID: item.ID, BookerID: booker.ID}
	require.NoError(t, db.CreateBooking(ctx, booking))

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(i int) {
			defer wg.Done()
			status := models.StatusApproved
			if i%2 == 1 {
				status = models.StatusRejected
			}
			results <- db.DecideBooking(ctx, booking.ID, status)
		}(i)
	}

	wg.Wait()
	close(results)

	successCount := 0
	for err := range results {
		if err == nil {
			successCount++
			continue
		}
		assert.True(t, errors.Is(err, domain.ErrValidation), "unexpected error: %v", err)
	}

	assert.Equal(t, 1, successCount, "exactly one decision must win")

	got, err := db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.NotEqual(t, models.StatusWaiting, got.Status)
}
