package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/models"
)

// exportPageSize is the batch size used to read all owner bookings for an export.
var exportPageSize = 500

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var req bookingCreateRequest
	if err := s.decode(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	now := time.Now()
	if !req.Start.Time().After(now) || !req.End.Time().After(now) {
		writeError(w, http.StatusBadRequest, "start and end must be in the future")
		return
	}

	booking, err := s.svc.Bookings.CreateBooking(r.Context(), models.BookingRequest{
		ItemID: req.ItemID,
		Start:  req.Start.Time(),
		End:    req.End.Time(),
	}, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBookingResponse(booking))
}

func (s *HTTPServer) handleApproveBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	approved, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("approved")))
	if err != nil {
		s.writeServiceError(w, r, fmt.Errorf("%w: approved must be true or false", domain.ErrValidation))
		return
	}

	booking, err := s.svc.Bookings.ApproveBooking(r.Context(), bookingID, userID, approved)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingResponse(booking))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	bookingID, err := pathID(r, "id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	booking, err := s.svc.Bookings.GetBooking(r.Context(), bookingID, userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingResponse(booking))
}

func (s *HTTPServer) handleListBookerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.svc.Bookings.GetBookerBookings)
}

func (s *HTTPServer) handleListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	s.listBookings(w, r, s.svc.Bookings.GetOwnerBookings)
}

type bookingLister func(ctx context.Context, userID int64, state string, page models.Page) ([]*models.Booking, error)

func (s *HTTPServer) listBookings(
	w http.ResponseWriter,
	r *http.Request,
	list bookingLister,
) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	page, err := s.pageFromQuery(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	bookings, err := list(r.Context(), userID, stateFromQuery(r), page)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBookingResponses(bookings))
}

func (s *HTTPServer) handleExportOwnerBookings(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromHeader(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	state := stateFromQuery(r)

	bookings, err := s.allOwnerBookings(r.Context(), userID, state)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var buf bytes.Buffer
	title := fmt.Sprintf("Bookings of owner %d (%s)", userID, state)
	if err := s.svc.Exporter.Write(&buf, title, bookings); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings_owner_%d.xlsx"`, userID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) allOwnerBookings(ctx context.Context, ownerID int64, state string) ([]*models.Booking, error) {
	var all []*models.Booking
	for from := 0; ; from += exportPageSize {
		page, err := s.svc.Bookings.GetOwnerBookings(ctx, ownerID, state, models.Page{From: from, Size: exportPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}
