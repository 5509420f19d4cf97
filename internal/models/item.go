package models

type Item struct {
	ID          int64  `json:"id" yaml:"id" db:"id"`
	Name        string `json:"name" yaml:"name" db:"name"`
	Description string `json:"description" yaml:"description" db:"description"`
	Available   bool   `json:"available" yaml:"available" db:"available"`
	OwnerID     int64  `json:"owner_id" yaml:"owner_id" db:"owner_id"`
	RequestID   *int64 `json:"request_id,omitempty" yaml:"request_id,omitempty" db:"request_id"`
}

// ItemDetails is an item together with its booking window and comments.
// LastBooking and NextBooking are only set for the item owner.
type ItemDetails struct {
	Item
	LastBooking *BookingShort `json:"last_booking"`
	NextBooking *BookingShort `json:"next_booking"`
	Comments    []*Comment    `json:"comments"`
}

// ItemPatch carries the fields of a partial item update. Nil fields are kept.
type ItemPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Available   *bool   `json:"available,omitempty"`
}
