package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	logger := zerolog.Nop()
	svc := NewRequestService(f.store, &logger)
	svc.now = f.clock.Now

	first, err := svc.CreateRequest(ctx, "Need a tent", f.booker.ID)
	require.NoError(t, err)
	assert.True(t, first.Created.Equal(baseNow))
	assert.Empty(t, first.Items)

	f.clock.Advance(time.Hour)
	second, err := svc.CreateRequest(ctx, "Need a kayak", f.booker.ID)
	require.NoError(t, err)

	answer, err := f.items.CreateItem(ctx, &models.Item{
		Name: "Tent", Description: "Two person tent", Available: true, RequestID: &first.ID,
	}, f.owner.ID)
	require.NoError(t, err)

	t.Run("Validation", func(t *testing.T) {
		_, err := svc.CreateRequest(ctx, "  ", f.booker.ID)
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, err = svc.CreateRequest(ctx, "x", 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("OwnNewestFirst", func(t *testing.T) {
		got, err := svc.GetOwnRequests(ctx, f.booker.ID, models.Page{From: 0, Size: 10})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.ID, got[0].ID)
		assert.Empty(t, got[0].Items)
		assert.Equal(t, first.ID, got[1].ID)
		require.Len(t, got[1].Items, 1)
		assert.Equal(t, answer.ID, got[1].Items[0].ID)
	})

	t.Run("Others", func(t *testing.T) {
		got, err := svc.GetOtherRequests(ctx, f.owner.ID, models.Page{From: 0, Size: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)

		got, err = svc.GetOtherRequests(ctx, f.booker.ID, models.Page{From: 0, Size: 10})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("Get", func(t *testing.T) {
		got, err := svc.GetRequest(ctx, first.ID, f.other.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)

		_, err = svc.GetRequest(ctx, 999, f.other.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = svc.GetRequest(ctx, first.ID, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("InvalidPage", func(t *testing.T) {
		_, err := svc.GetOwnRequests(ctx, f.booker.ID, models.Page{From: -1, Size: 10})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}
