package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *repository.MemoryStore
	bookings *service.BookingService
	server   *HTTPServer
	ts       *httptest.Server
}

func newTestEnv(t *testing.T, cfg config.APIConfig, quota domain.RateLimitRepository) *testEnv {
	t.Helper()
	logger := zerolog.Nop()
	store := repository.NewMemoryStore()
	bookings := service.NewBookingService(store, nil, &logger)

	svc := Services{
		Users:    service.NewUserService(store, &logger),
		Items:    service.NewItemService(store, nil, &logger),
		Bookings: bookings,
		Requests: service.NewRequestService(store, &logger),
		Exporter: export.NewBookingExporter("Bookings"),
		Health:   store.Ping,
	}

	server := NewHTTPServer(cfg, svc, quota, 10, &logger)
	ts := httptest.NewServer(server.Routes())
	t.Cleanup(ts.Close)

	return &testEnv{store: store, bookings: bookings, server: server, ts: ts}
}

// do sends a JSON request as userID (0 means no header) and returns status and body.
func (e *testEnv) do(t *testing.T, method, path string, userID int64, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, e.ts.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(userIDHeader, strconv.FormatInt(userID, 10))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com"}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *testEnv) item(t *testing.T, ownerID int64, name string) *models.Item {
	t.Helper()
	i := &models.Item{Name: name, Description: name + " for rent", Available: true, OwnerID: ownerID}
	require.NoError(t, e.store.CreateItem(context.Background(), i))
	return i
}

func (e *testEnv) booking(t *testing.T, itemID, bookerID int64, start, end time.Time, status models.BookingStatus) *models.Booking {
	t.Helper()
	b := &models.Booking{ItemID: itemID, BookerID: bookerID, Start: start, End: end, Status: status}
	require.NoError(t, e.store.CreateBooking(context.Background(), b))
	return b
}

func decodeBody[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func errorMessage(t *testing.T, data []byte) string {
	return decodeBody[map[string]string](t, data)["error"]
}

func futureTS(d time.Duration) string {
	return time.Now().UTC().Add(d).Format(timestampLayout)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
