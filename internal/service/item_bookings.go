package service

import (
	"context"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// ItemBookings is the nearest approved booking on each side of now.
type ItemBookings struct {
	Last *models.BookingShort
	Next *models.BookingShort
}

// BookingAggregator resolves last/next approved bookings for many items
// with a single store query.
type BookingAggregator struct {
	repo domain.BookingRepository
}

func NewBookingAggregator(repo domain.BookingRepository) *BookingAggregator {
	return &BookingAggregator{repo: repo}
}

// ForItems groups approved bookings by item. Items without bookings are absent.
func (a *BookingAggregator) ForItems(ctx context.Context, itemIDs []int64, now time.Time) (map[int64]ItemBookings, error) {
	result := make(map[int64]ItemBookings)
	if len(itemIDs) == 0 {
		return result, nil
	}

	bookings, err := a.repo.GetApprovedBookingsByItemIDs(ctx, itemIDs)
	if err != nil {
		return nil, err
	}

	byItem := make(map[int64][]*models.Booking)
	for _, b := range bookings {
		byItem[b.ItemID] = append(byItem[b.ItemID], b)
	}

	for itemID, group := range byItem {
		last, next := lastAndNext(group, now)
		result[itemID] = ItemBookings{Last: last.Short(), Next: next.Short()}
	}
	return result, nil
}

// lastAndNext picks the latest start before now and the earliest start after now.
// A booking starting exactly at now is neither.
func lastAndNext(bookings []*models.Booking, now time.Time) (last, next *models.Booking) {
	for _, b := range bookings {
		if b.Status != models.StatusApproved {
			continue
		}
		switch {
		case b.Start.Before(now):
			if last == nil || b.Start.After(last.Start) {
				last = b
			}
		case b.Start.After(now):
			if next == nil || b.Start.Before(next.Start) {
				next = b
			}
		}
	}
	return last, next
}
