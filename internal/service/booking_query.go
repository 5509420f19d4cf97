package service

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// GetBookerBookings lists the bookings made by bookerID in the given state.
func (s *BookingService) GetBookerBookings(ctx context.Context, bookerID int64, state string, page models.Page) ([]*models.Booking, error) {
	return s.findBookings(ctx, bookerID, state, page, func(f *domain.BookingFilter) {
		f.BookerID = bookerID
	})
}

// GetOwnerBookings lists the bookings of every item owned by ownerID.
func (s *BookingService) GetOwnerBookings(ctx context.Context, ownerID int64, state string, page models.Page) ([]*models.Booking, error) {
	return s.findBookings(ctx, ownerID, state, page, func(f *domain.BookingFilter) {
		f.OwnerID = ownerID
	})
}

func (s *BookingService) findBookings(
	ctx context.Context,
	userID int64,
	state string,
	page models.Page,
	scope func(*domain.BookingFilter),
) ([]*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	if err := ValidatePage(page); err != nil {
		return nil, err
	}

	filter, err := StateFilter(models.SearchState(state), s.now().UTC())
	if err != nil {
		return nil, err
	}
	scope(&filter)
	filter.Page = page

	return s.repo.FindBookings(ctx, filter)
}

// StateFilter maps a search state to a booking filter evaluated at now.
func StateFilter(state models.SearchState, now time.Time) (domain.BookingFilter, error) {
	var f domain.BookingFilter
	switch state {
	case models.StateAll:
	case models.StateCurrent:
		f.StartBefore = now
		f.EndAfter = now
	case models.StatePast:
		f.EndBefore = now
	case models.StateFuture:
		f.StartAfter = now
	case models.StateWaiting:
		f.Status = models.StatusWaiting
	case models.StateRejected:
		f.Status = models.StatusRejected
	default:
		return f, domain.ErrUnknownState
	}
	return f, nil
}

// ValidatePage rejects negative offsets and empty pages.
func ValidatePage(page models.Page) error {
	if page.From < 0 {
		return fmt.Errorf("%w: from must be >= 0", domain.ErrValidation)
	}
	if page.Size < 1 {
		return fmt.Errorf("%w: size must be >= 1", domain.ErrValidation)
	}
	return nil
}
