package domain

import (
	"time"

	"shareit/internal/models"
)

// BookingFilter is the store-level predicate produced for a booking listing.
// Zero-valued fields do not constrain the result. Time bounds are strict.
// Results are ordered by start descending and windowed by Page.
type BookingFilter struct {
	BookerID int64
	OwnerID  int64
	Status   models.BookingStatus

	StartBefore time.Time
	StartAfter  time.Time
	EndBefore   time.Time
	EndAfter    time.Time

	Page models.Page
}

// Match reports whether b satisfies the filter. ownerID is the owner of b's item.
func (f BookingFilter) Match(b *models.Booking, ownerID int64) bool {
	if f.BookerID != 0 && b.BookerID != f.BookerID {
		return false
	}
	if f.OwnerID != 0 && ownerID != f.OwnerID {
		return false
	}
	if f.Status != "" && b.Status != f.Status {
		return false
	}
	if !f.StartBefore.IsZero() && !b.Start.Before(f.StartBefore) {
		return false
	}
	if !f.StartAfter.IsZero() && !b.Start.After(f.StartAfter) {
		return false
	}
	if !f.EndBefore.IsZero() && !b.End.Before(f.EndBefore) {
		return false
	}
	if !f.EndAfter.IsZero() && !b.End.After(f.EndAfter) {
		return false
	}
	return true
}
