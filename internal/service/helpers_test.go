package service

import (
	"context"
	"testing"
	"time"

	"shareit/internal/models"
	"shareit/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var baseNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

type fixture struct {
	store    *repository.MemoryStore
	clock    *testClock
	bookings *BookingService
	items    *ItemService
	owner    *models.User
	booker   *models.User
	other    *models.User
	item     *models.Item
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.Nop()
	store := repository.NewMemoryStore()
	clock := &testClock{now: baseNow}

	f := &fixture{
		store:    store,
		clock:    clock,
		bookings: NewBookingService(store, nil, &logger),
		items:    NewItemService(store, nil, &logger),
	}
	f.bookings.now = clock.Now
	f.items.now = clock.Now

	f.owner = addUser(t, store, "owner")
	f.booker = addUser(t, store, "booker")
	f.other = addUser(t, store, "other")
	f.item = addItem(t, store, f.owner.ID, "Drill", true)
	return f
}

func addUser(t *testing.T, store *repository.MemoryStore, name string) *models.User {
	t.Helper()
	user := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return user
}

func addItem(t *testing.T, store *repository.MemoryStore, ownerID int64, name string, available bool) *models.Item {
	t.Helper()
	item := &models.Item{Name: name, Description: name + " description", Available: available, OwnerID: ownerID}
	require.NoError(t, store.CreateItem(context.Background(), item))
	return item
}

func addBooking(t *testing.T, store *repository.MemoryStore, itemID, bookerID int64, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{ItemID: itemID, BookerID: bookerID, Start: start, End: end, Status: status}
	require.NoError(t, store.CreateBooking(context.Background(), b))
	return b
}

func ids(bookings []*models.Booking) []int64 {
	out := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.ID)
	}
	return out
}
