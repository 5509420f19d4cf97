package models

import "time"

// ItemRequest is a user's request for an item nobody has listed yet.
type ItemRequest struct {
	ID          int64     `json:"id" db:"id"`
	Description string    `json:"description" db:"description"`
	RequesterID int64     `json:"requester_id" db:"requester_id"`
	Created     time.Time `json:"created" db:"created"`

	Items []*Item `json:"items" db:"-"`
}
