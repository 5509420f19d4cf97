package models

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	// StatusCanceled is part of the stored vocabulary; no operation sets it.
	StatusCanceled BookingStatus = "CANCELED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

type Booking struct {
	ID       int64         `json:"id" db:"id"`
	Start    time.Time     `json:"start" db:"start_date"`
	End      time.Time     `json:"end" db:"end_date"`
	ItemID   int64         `json:"item_id" db:"item_id"`
	BookerID int64         `json:"booker_id" db:"booker_id"`
	Status   BookingStatus `json:"status" db:"status"`

	// Filled on reads that join the item and the booker.
	Item   *Item `json:"item,omitempty" db:"-"`
	Booker *User `json:"booker,omitempty" db:"-"`
}

// BookingShort is the compact booking view attached to items.
type BookingShort struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"booker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

func (b *Booking) Short() *BookingShort {
	if b == nil {
		return nil
	}
	return &BookingShort{ID: b.ID, BookerID: b.BookerID, Start: b.Start, End: b.End}
}

// BookingRequest is the input for creating a booking.
type BookingRequest struct {
	ItemID int64     `json:"item_id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}
