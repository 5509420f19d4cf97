package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestLastAndNext(t *testing.T) {
	now := baseNow
	at := func(id int64, offset time.Duration, status models.BookingStatus) *models.Booking {
		return &models.Booking{ID: id, Start: now.Add(offset), End: now.Add(offset + time.Hour), Status: status}
	}

	t.Run("Empty", func(t *testing.T) {
		last, next := lastAndNext(nil, now)
		assert.Nil(t, last)
		assert.Nil(t, next)
	})

	t.Run("Nearest", func(t *testing.T) {
		bookings := []*models.Booking{
			at(1, -72*time.Hour, models.StatusApproved),
			at(2, -2*time.Hour, models.StatusApproved),
			at(3, 3*time.Hour, models.StatusApproved),
			at(4, 48*time.Hour, models.StatusApproved),
		}
		last, next := lastAndNext(bookings, now)
		assert.Equal(t, int64(2), last.ID)
		assert.Equal(t, int64(3), next.ID)
	})

	t.Run("StartAtNowIsNeither", func(t *testing.T) {
		last, next := lastAndNext([]*models.Booking{at(1, 0, models.StatusApproved)}, now)
		assert.Nil(t, last)
		assert.Nil(t, next)
	})

	t.Run("NonApprovedIgnored", func(t *testing.T) {
		bookings := []*models.Booking{
			at(1, -time.Hour, models.StatusWaiting),
			at(2, time.Hour, models.StatusRejected),
		}
		last, next := lastAndNext(bookings, now)
		assert.Nil(t, last)
		assert.Nil(t, next)
	})
}

func TestBookingAggregator_ForItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	second := addItem(t, f.store, f.owner.ID, "Saw", true)
	idle := addItem(t, f.store, f.owner.ID, "Hammer", true)

	h := time.Hour
	last := addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(-5*h), baseNow.Add(-4*h), models.StatusApproved)
	next := addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(5*h), baseNow.Add(6*h), models.StatusApproved)
	addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(2*h), baseNow.Add(3*h), models.StatusWaiting)
	onlyNext := addBooking(t, f.store, second.ID, f.booker.ID, baseNow.Add(h), baseNow.Add(2*h), models.StatusApproved)

	got, err := NewBookingAggregator(f.store).ForItems(ctx, []int64{f.item.ID, second.ID, idle.ID}, baseNow)
	require.NoError(t, err)

	require.Contains(t, got, f.item.ID)
	assert.Equal(t, last.ID, got[f.item.ID].Last.ID)
	assert.Equal(t, next.ID, got[f.item.ID].Next.ID)

	assert.Nil(t, got[second.ID].Last)
	assert.Equal(t, onlyNext.ID, got[second.ID].Next.ID)

	assert.NotContains(t, got, idle.ID)

	empty, err := NewBookingAggregator(f.store).ForItems(ctx, nil, baseNow)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestItemService_CRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("Create", func(t *testing.T) {
		item, err := f.items.CreateItem(ctx, &models.Item{Name: "Bike", Description: "City bike", Available: true}, f.other.ID)
		require.NoError(t, err)
		assert.NotZero(t, item.ID)
		assert.Equal(t, f.other.ID, item.OwnerID)
	})

	t.Run("CreateUnknownOwner", func(t *testing.T) {
		_, err := f.items.CreateItem(ctx, &models.Item{Name: "Bike", Description: "City bike", Available: true}, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("CreateBlankName", func(t *testing.T) {
		_, err := f.items.CreateItem(ctx, &models.Item{Name: " ", Description: "x", Available: true}, f.owner.ID)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("CreateUnknownRequest", func(t *testing.T) {
		_, err := f.items.CreateItem(ctx, &models.Item{Name: "Bike", Description: "x", RequestID: ptr(int64(77))}, f.owner.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		updated, err := f.items.UpdateItem(ctx, f.item.ID, f.owner.ID, models.ItemPatch{
			Description: ptr("Cordless drill"),
			Available:   ptr(false),
		})
		require.NoError(t, err)
		assert.Equal(t, "Drill", updated.Name)
		assert.Equal(t, "Cordless drill", updated.Description)
		assert.False(t, updated.Available)

		stored, err := f.store.GetItemByID(ctx, f.item.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cordless drill", stored.Description)
	})

	t.Run("UpdateByNonOwner", func(t *testing.T) {
		_, err := f.items.UpdateItem(ctx, f.item.ID, f.booker.ID, models.ItemPatch{Name: ptr("Mine")})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("DeleteByNonOwner", func(t *testing.T) {
		assert.ErrorIs(t, f.items.DeleteItem(ctx, f.item.ID, f.booker.ID), domain.ErrForbidden)
	})

	t.Run("Delete", func(t *testing.T) {
		item := addItem(t, f.store, f.owner.ID, "Temp", true)
		require.NoError(t, f.items.DeleteItem(ctx, item.ID, f.owner.ID))
		_, err := f.store.GetItemByID(ctx, item.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestItemService_GetItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	h := time.Hour
	last := addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(-5*h), baseNow.Add(-4*h), models.StatusApproved)
	next := addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(5*h), baseNow.Add(6*h), models.StatusApproved)

	_, err := f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "Great drill")
	require.NoError(t, err)

	t.Run("OwnerSeesBookings", func(t *testing.T) {
		d, err := f.items.GetItem(ctx, f.item.ID, f.owner.ID)
		require.NoError(t, err)
		require.NotNil(t, d.LastBooking)
		require.NotNil(t, d.NextBooking)
		assert.Equal(t, last.ID, d.LastBooking.ID)
		assert.Equal(t, next.ID, d.NextBooking.ID)
		require.Len(t, d.Comments, 1)
		assert.Equal(t, "booker", d.Comments[0].AuthorName)
	})

	t.Run("OthersDoNot", func(t *testing.T) {
		d, err := f.items.GetItem(ctx, f.item.ID, f.booker.ID)
		require.NoError(t, err)
		assert.Nil(t, d.LastBooking)
		assert.Nil(t, d.NextBooking)
		assert.Len(t, d.Comments, 1)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := f.items.GetItem(ctx, 999, f.owner.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("NoCommentsIsEmptySlice", func(t *testing.T) {
		other := addItem(t, f.store, f.other.ID, "Kayak", true)
		d, err := f.items.GetItem(ctx, other.ID, f.other.ID)
		require.NoError(t, err)
		assert.NotNil(t, d.Comments)
		assert.Empty(t, d.Comments)
	})
}

func TestItemService_GetOwnerItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	second := addItem(t, f.store, f.owner.ID, "Saw", true)
	addItem(t, f.store, f.other.ID, "Tent", true)
	next := addBooking(t, f.store, second.ID, f.booker.ID, baseNow.Add(time.Hour), baseNow.Add(2*time.Hour), models.StatusApproved)

	got, err := f.items.GetOwnerItems(ctx, f.owner.ID, models.Page{From: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, f.item.ID, got[0].ID)
	assert.Nil(t, got[0].NextBooking)
	assert.Equal(t, second.ID, got[1].ID)
	assert.Equal(t, next.ID, got[1].NextBooking.ID)

	got, err = f.items.GetOwnerItems(ctx, f.owner.ID, models.Page{From: 1, Size: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, second.ID, got[0].ID)

	_, err = f.items.GetOwnerItems(ctx, 999, models.Page{From: 0, Size: 10})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.items.GetOwnerItems(ctx, f.owner.ID, models.Page{From: 0, Size: 0})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestItemService_SearchItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	addItem(t, f.store, f.owner.ID, "Power DRILL", false)
	page := models.Page{From: 0, Size: 10}

	got, err := f.items.SearchItems(ctx, "dRiLl", page)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, f.item.ID, got[0].ID)

	got, err = f.items.SearchItems(ctx, "  ", page)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = f.items.SearchItems(ctx, "drill", models.Page{From: -1, Size: 10})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestItemService_CreateComment(t *testing.T) {
	ctx := context.Background()
	h := time.Hour

	t.Run("WithoutBooking", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "nice")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("BookingNotFinished", func(t *testing.T) {
		f := newFixture(t)
		addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(-h), baseNow.Add(h), models.StatusApproved)
		_, err := f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "nice")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("EndExactlyNow", func(t *testing.T) {
		f := newFixture(t)
		addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(-h), baseNow, models.StatusApproved)
		_, err := f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "nice")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("FinishedButNotApproved", func(t *testing.T) {
		f := newFixture(t)
		addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(-3*h), baseNow.Add(-2*h), models.StatusWaiting)
		addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(-5*h), baseNow.Add(-4*h), models.StatusRejected)
		_, err := f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "nice")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("UnknownUserOrItem", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.items.CreateComment(ctx, f.item.ID, 999, "nice")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = f.items.CreateComment(ctx, 999, f.booker.ID, "nice")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Accepted", func(t *testing.T) {
		f := newFixture(t)
		pub := new(mockPublisher)
		pub.On("PublishJSON", events.EventCommentCreated, mock.AnythingOfType("events.CommentEventPayload")).Return(nil)
		f.items.eventBus = pub
		addBooking(t, f.store, f.item.ID, f.booker.ID, baseNow.Add(-3*h), baseNow.Add(-2*h), models.StatusApproved)

		c, err := f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "Works great")
		require.NoError(t, err)
		assert.NotZero(t, c.ID)
		assert.Equal(t, "Works great", c.Text)
		assert.Equal(t, "booker", c.AuthorName)
		assert.True(t, c.Created.Equal(baseNow))
		pub.AssertExpectations(t)
	})
}

func TestBookingLifecycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	req := models.BookingRequest{ItemID: f.item.ID, Start: baseNow.Add(time.Hour), End: baseNow.Add(3 * time.Hour)}
	booking, err := f.bookings.CreateBooking(ctx, req, f.booker.ID)
	require.NoError(t, err)

	_, err = f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "too early")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = f.bookings.ApproveBooking(ctx, booking.ID, f.owner.ID, true)
	require.NoError(t, err)

	d, err := f.items.GetItem(ctx, f.item.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Nil(t, d.LastBooking)
	assert.Equal(t, booking.ID, d.NextBooking.ID)

	f.clock.Advance(2 * time.Hour)
	current, err := f.bookings.GetBookerBookings(ctx, f.booker.ID, "CURRENT", models.Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{booking.ID}, ids(current))

	f.clock.Advance(2 * time.Hour)
	comment, err := f.items.CreateComment(ctx, f.item.ID, f.booker.ID, "returned on time")
	require.NoError(t, err)

	d, err = f.items.GetItem(ctx, f.item.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, d.LastBooking.ID)
	assert.Nil(t, d.NextBooking)
	require.Len(t, d.Comments, 1)
	assert.Equal(t, comment.ID, d.Comments[0].ID)

	past, err := f.bookings.GetOwnerBookings(ctx, f.owner.ID, "PAST", models.Page{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, []int64{booking.ID}, ids(past))
}
