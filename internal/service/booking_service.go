package service

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBooking stores a new WAITING booking of req.ItemID by bookerID.
func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest, bookerID int64) (*models.Booking, error) {
	booker, err := s.repo.GetUserByID(ctx, bookerID)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.GetItemByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}

	if item.OwnerID == bookerID {
		logging.FromContext(ctx, s.logger).Warn().Int64("item_id", item.ID).Int64("user_id", bookerID).Msg("owner tried to book own item")
		return nil, fmt.Errorf("%w: owner cannot book own item %d", domain.ErrForbidden, item.ID)
	}

	if !item.Available {
		return nil, fmt.Errorf("%w: item %d is not available", domain.ErrValidation, item.ID)
	}

	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("%w: booking end must be after start", domain.ErrValidation)
	}

	booking := &models.Booking{
		Start:    req.Start.UTC(),
		End:      req.End.UTC(),
		ItemID:   item.ID,
		BookerID: booker.ID,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}
	booking.Item = item
	booking.Booker = booker

	logging.FromContext(ctx, s.logger).Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", item.ID).
		Int64("booker_id", booker.ID).
		Msg("booking created")

	metrics.IncBookingTransition(string(booking.Status))
	s.publishEvent(events.EventBookingCreated, booking, bookerID)

	return booking, nil
}

// ApproveBooking lets the item owner decide a WAITING booking.
func (s *BookingService) ApproveBooking(ctx context.Context, bookingID, userID int64, approved bool) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if ownerOf(booking) != userID {
		logging.FromContext(ctx, s.logger).Warn().Int64("booking_id", bookingID).Int64("user_id", userID).Msg("non-owner tried to decide booking")
		return nil, fmt.Errorf("%w: only the item owner can decide booking %d", domain.ErrForbidden, bookingID)
	}

	if booking.Status != models.StatusWaiting {
		return nil, fmt.Errorf("%w: booking %d is already %s", domain.ErrValidation, bookingID, booking.Status)
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approved {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	// The store re-checks WAITING so a concurrent decision loses here.
	if err := s.repo.DecideBooking(ctx, bookingID, status); err != nil {
		return nil, err
	}
	booking.Status = status

	logging.FromContext(ctx, s.logger).Info().
		Int64("booking_id", bookingID).
		Int64("owner_id", userID).
		Str("status", string(status)).
		Msg("booking decided")

	metrics.IncBookingTransition(string(status))
	s.publishEvent(eventType, booking, userID)

	return booking, nil
}

// GetBooking returns a booking visible to its booker and the item owner.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if booking.BookerID != userID && ownerOf(booking) != userID {
		return nil, fmt.Errorf("%w: booking %d is not visible to user %d", domain.ErrForbidden, bookingID, userID)
	}

	return booking, nil
}

func ownerOf(b *models.Booking) int64 {
	if b.Item == nil {
		return 0
	}
	return b.Item.OwnerID
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ItemID:      booking.ItemID,
		BookerID:    booking.BookerID,
		OwnerID:     ownerOf(booking),
		Status:      string(booking.Status),
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}
