package api

import (
	"fmt"
	"strconv"
	"time"

	"shareit/internal/models"
)

const timestampLayout = "2006-01-02T15:04:05"

// Timestamp is a UTC instant rendered without zone, as the clients expect.
// Input also accepts RFC 3339.
type Timestamp time.Time

func (t Timestamp) Time() time.Time { return time.Time(t) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Time(t).UTC().Format(timestampLayout))), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp must be a string")
	}
	parsed, err := parseTimestamp(raw)
	if err != nil {
		return err
	}
	*t = Timestamp(parsed)
	return nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(timestampLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q; expected %s or RFC 3339", raw, timestampLayout)
	}
	return parsed, nil
}

// requests

type userCreateRequest struct {
	Name  string `json:"name" validate:"notblank"`
	Email string `json:"email" validate:"required,email"`
}

type userUpdateRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" validate:"omitempty,email"`
}

type itemCreateRequest struct {
	Name        string `json:"name" validate:"notblank"`
	Description string `json:"description" validate:"notblank"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId" validate:"omitempty,gt=0"`
}

type itemUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type bookingCreateRequest struct {
	ItemID int64      `json:"itemId" validate:"required,gt=0"`
	Start  *Timestamp `json:"start" validate:"required"`
	End    *Timestamp `json:"end" validate:"required"`
}

type commentCreateRequest struct {
	Text string `json:"text" validate:"notblank"`
}

type itemRequestCreateRequest struct {
	Description string `json:"description" validate:"notblank"`
}

// responses

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

type itemResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

func newItemResponse(i *models.Item) itemResponse {
	return itemResponse{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		OwnerID:     i.OwnerID,
		RequestID:   i.RequestID,
	}
}

func newItemResponses(items []*models.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, newItemResponse(i))
	}
	return out
}

type bookingShortResponse struct {
	ID       int64     `json:"id"`
	BookerID int64     `json:"bookerId"`
	Start    Timestamp `json:"start"`
	End      Timestamp `json:"end"`
}

func newBookingShortResponse(b *models.BookingShort) *bookingShortResponse {
	if b == nil {
		return nil
	}
	return &bookingShortResponse{ID: b.ID, BookerID: b.BookerID, Start: Timestamp(b.Start), End: Timestamp(b.End)}
}

type commentResponse struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    Timestamp `json:"created"`
}

func newCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{ID: c.ID, Text: c.Text, AuthorName: c.AuthorName, Created: Timestamp(c.Created)}
}

type itemDetailsResponse struct {
	itemResponse
	LastBooking *bookingShortResponse `json:"lastBooking"`
	NextBooking *bookingShortResponse `json:"nextBooking"`
	Comments    []commentResponse     `json:"comments"`
}

func newItemDetailsResponse(d *models.ItemDetails) itemDetailsResponse {
	comments := make([]commentResponse, 0, len(d.Comments))
	for _, c := range d.Comments {
		comments = append(comments, newCommentResponse(c))
	}
	return itemDetailsResponse{
		itemResponse: newItemResponse(&d.Item),
		LastBooking:  newBookingShortResponse(d.LastBooking),
		NextBooking:  newBookingShortResponse(d.NextBooking),
		Comments:     comments,
	}
}

type refResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookingResponse struct {
	ID     int64       `json:"id"`
	Start  Timestamp   `json:"start"`
	End    Timestamp   `json:"end"`
	Status string      `json:"status"`
	Item   refResponse `json:"item"`
	Booker refResponse `json:"booker"`
}

func newBookingResponse(b *models.Booking) bookingResponse {
	resp := bookingResponse{
		ID:     b.ID,
		Start:  Timestamp(b.Start),
		End:    Timestamp(b.End),
		Status: string(b.Status),
		Item:   refResponse{ID: b.ItemID},
		Booker: refResponse{ID: b.BookerID},
	}
	if b.Item != nil {
		resp.Item.Name = b.Item.Name
	}
	if b.Booker != nil {
		resp.Booker.Name = b.Booker.Name
	}
	return resp
}

func newBookingResponses(bookings []*models.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, newBookingResponse(b))
	}
	return out
}

type itemRequestResponse struct {
	ID          int64          `json:"id"`
	Description string         `json:"description"`
	Created     Timestamp      `json:"created"`
	Items       []itemResponse `json:"items"`
}

func newItemRequestResponse(r *models.ItemRequest) itemRequestResponse {
	return itemRequestResponse{
		ID:          r.ID,
		Description: r.Description,
		Created:     Timestamp(r.Created),
		Items:       newItemResponses(r.Items),
	}
}
