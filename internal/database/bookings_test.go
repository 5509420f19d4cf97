package database

import (
	"context"
	"testing"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	db      *DB
	owner   *models.User
	booker  *models.User
	item    *models.Item
	now     time.Time
	past    *models.Booking
	current *models.Booking
	future  *models.Booking
	waiting *models.Booking
	reject  *models.Booking
}

func setupBookings(t *testing.T) *bookingFixture {
	t.Helper()
	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	f := &bookingFixture{db: db, now: now}
	f.owner = createUser(t, db, "owner")
	f.booker = createUser(t, db, "booker")
	f.item = createItem(t, db, f.owner.ID, "Drill", true)

	add := func(start, end time.Time, status models.BookingStatus) *models.Booking {
		b := &models.Booking{Start: start, End: end, ItemID: f.item.ID, BookerID: f.booker.ID, Status: status}
		require.NoError(t, db.CreateBooking(ctx, b))
		return b
	}

	f.past = add(now.Add(-72*time.Hour), now.Add(-48*time.Hour), models.StatusApproved)
	f.current = add(now.Add(-time.Hour), now.Add(time.Hour), models.StatusApproved)
	f.future = add(now.Add(48*time.Hour), now.Add(72*time.Hour), models.StatusApproved)
	f.waiting = add(now.Add(96*time.Hour), now.Add(100*time.Hour), models.StatusWaiting)
	f.reject = add(now.Add(24*time.Hour), now.Add(30*time.Hour), models.StatusRejected)
	return f
}

func ids(bookings []*models.Booking) []int64 {
	out := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}

func TestGetBooking(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()

	got, err := f.db.GetBooking(ctx, f.current.ID)
	require.NoError(t, err)

	assert.Equal(t, f.current.ID, got.ID)
	assert.True(t, f.current.Start.Equal(got.Start))
	assert.True(t, f.current.End.Equal(got.End))
	assert.Equal(t, time.UTC, got.Start.Location())
	assert.Equal(t, models.StatusApproved, got.Status)
	require.NotNil(t, got.Item)
	assert.Equal(t, f.owner.ID, got.Item.OwnerID)
	assert.Equal(t, "Drill", got.Item.Name)
	require.NotNil(t, got.Booker)
	assert.Equal(t, f.booker.Email, got.Booker.Email)

	_, err = f.db.GetBooking(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBooking_DefaultsToWaiting(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()

	b := &models.Booking{Start: f.now, End: f.now.Add(time.Hour), ItemID: f.item.ID, BookerID: f.booker.ID}
	require.NoError(t, f.db.CreateBooking(ctx, b))
	assert.Equal(t, models.StatusWaiting, b.Status)

	got, err := f.db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusWaiting, got.Status)
}

func TestFindBookings_Predicates(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()
	page := models.Page{From: 0, Size: 20}

	tests := []struct {
		name   string
		filter domain.BookingFilter
		want   []int64
	}{
		{
			name:   "all by booker newest first",
			filter: domain.BookingFilter{BookerID: f.booker.ID, Page: page},
			want:   []int64{f.waiting.ID, f.future.ID, f.reject.ID, f.current.ID, f.past.ID},
		},
		{
			name:   "current",
			filter: domain.BookingFilter{BookerID: f.booker.ID, StartBefore: f.now, EndAfter: f.now, Page: page},
			want:   []int64{f.current.ID},
		},
		{
			name:   "past",
			filter: domain.BookingFilter{BookerID: f.booker.ID, EndBefore: f.now, Page: page},
			want:   []int64{f.past.ID},
		},
		{
			name:   "future",
			filter: domain.BookingFilter{BookerID: f.booker.ID, StartAfter: f.now, Page: page},
			want:   []int64{f.waiting.ID, f.future.ID, f.reject.ID},
		},
		{
			name:   "waiting",
			filter: domain.BookingFilter{BookerID: f.booker.ID, Status: models.StatusWaiting, Page: page},
			want:   []int64{f.waiting.ID},
		},
		{
			name:   "rejected by owner",
			filter: domain.BookingFilter{OwnerID: f.owner.ID, Status: models.StatusRejected, Page: page},
			want:   []int64{f.reject.ID},
		},
		{
			name:   "other booker",
			filter: domain.BookingFilter{BookerID: f.owner.ID, Page: page},
			want:   []int64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.db.FindBookings(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFindBookings_StrictBounds(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()

	// A booking ending exactly at now is neither PAST nor CURRENT.
	edge := &models.Booking{Start: f.now.Add(-time.Hour), End: f.now, ItemID: f.item.ID, BookerID: f.booker.ID}
	require.NoError(t, f.db.CreateBooking(ctx, edge))

	past, err := f.db.FindBookings(ctx, domain.BookingFilter{BookerID: f.booker.ID, EndBefore: f.now})
	require.NoError(t, err)
	assert.NotContains(t, ids(past), edge.ID)

	current, err := f.db.FindBookings(ctx, domain.BookingFilter{BookerID: f.booker.ID, StartBefore: f.now, EndAfter: f.now})
	require.NoError(t, err)
	assert.NotContains(t, ids(current), edge.ID)
}

func TestFindBookings_Pagination(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()

	first, err := f.db.FindBookings(ctx, domain.BookingFilter{OwnerID: f.owner.ID, Page: models.Page{From: 0, Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, []int64{f.waiting.ID, f.future.ID}, ids(first))

	// from=3,size=2 reads the second page.
	second, err := f.db.FindBookings(ctx, domain.BookingFilter{OwnerID: f.owner.ID, Page: models.Page{From: 3, Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, []int64{f.reject.ID, f.current.ID}, ids(second))

	last, err := f.db.FindBookings(ctx, domain.BookingFilter{OwnerID: f.owner.ID, Page: models.Page{From: 4, Size: 2}})
	require.NoError(t, err)
	assert.Equal(t, []int64{f.past.ID}, ids(last))
}

func TestDecideBooking(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()

	require.NoError(t, f.db.DecideBooking(ctx, f.waiting.ID, models.StatusApproved))

	got, err := f.db.GetBooking(ctx, f.waiting.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	err = f.db.DecideBooking(ctx, f.waiting.ID, models.StatusRejected)
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = f.db.DecideBooking(ctx, f.reject.ID, models.StatusApproved)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetApprovedBookingsByItemIDs(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()

	second := createItem(t, f.db, f.owner.ID, "Saw", true)
	sawBooking := &models.Booking{Start: f.now.Add(time.Hour), End: f.now.Add(2 * time.Hour), ItemID: second.ID, BookerID: f.booker.ID, Status: models.StatusApproved}
	require.NoError(t, f.db.CreateBooking(ctx, sawBooking))

	got, err := f.db.GetApprovedBookingsByItemIDs(ctx, []int64{f.item.ID, second.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{f.past.ID, f.current.ID, f.future.ID, sawBooking.ID}, ids(got))
	for _, b := range got {
		assert.Equal(t, models.StatusApproved, b.Status)
	}

	got, err = f.db.GetApprovedBookingsByItemIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHasFinishedBooking(t *testing.T) {
	f := setupBookings(t)
	ctx := context.Background()

	ok, err := f.db.HasFinishedBooking(ctx, f.booker.ID, f.item.ID, f.now)
	require.NoError(t, err)
	assert.True(t, ok)

	// Before the past booking ended there is nothing finished yet.
	ok, err = f.db.HasFinishedBooking(ctx, f.booker.ID, f.item.ID, f.past.End)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.db.HasFinishedBooking(ctx, f.owner.ID, f.item.ID, f.now)
	require.NoError(t, err)
	assert.False(t, ok)
}
