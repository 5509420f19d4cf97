package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// bookingRow is a booking joined with its item and booker.
type bookingRow struct {
	models.Booking
	ItemName        string `db:"item_name"`
	ItemDescription string `db:"item_description"`
	ItemAvailable   bool   `db:"item_available"`
	ItemOwnerID     int64  `db:"item_owner_id"`
	ItemRequestID   *int64 `db:"item_request_id"`
	BookerName      string `db:"booker_name"`
	BookerEmail     string `db:"booker_email"`
}

func (r *bookingRow) toModel() *models.Booking {
	b := r.Booking
	b.Start = b.Start.UTC()
	b.End = b.End.UTC()
	b.Item = &models.Item{
		ID:          r.ItemID,
		Name:        r.ItemName,
		Description: r.ItemDescription,
		Available:   r.ItemAvailable,
		OwnerID:     r.ItemOwnerID,
		RequestID:   r.ItemRequestID,
	}
	b.Booker = &models.User{ID: r.BookerID, Name: r.BookerName, Email: r.BookerEmail}
	return &b
}

func (db *DB) bookingsQuery() *goqu.SelectDataset {
	return db.dialect.From(goqu.T("bookings").As("b")).
		Join(goqu.T("items").As("i"), goqu.On(goqu.I("i.id").Eq(goqu.I("b.item_id")))).
		Join(goqu.T("users").As("u"), goqu.On(goqu.I("u.id").Eq(goqu.I("b.booker_id")))).
		Select(
			goqu.I("b.id"),
			goqu.I("b.start_date"),
			goqu.I("b.end_date"),
			goqu.I("b.item_id"),
			goqu.I("b.booker_id"),
			goqu.I("b.status"),
			goqu.I("i.name").As("item_name"),
			goqu.I("i.description").As("item_description"),
			goqu.I("i.available").As("item_available"),
			goqu.I("i.owner_id").As("item_owner_id"),
			goqu.I("i.request_id").As("item_request_id"),
			goqu.I("u.name").As("booker_name"),
			goqu.I("u.email").As("booker_email"),
		).
		Prepared(true)
}

func (db *DB) selectBookings(ctx context.Context, ds *goqu.SelectDataset, what string) ([]*models.Booking, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s query: %w", what, err)
	}

	var rows []bookingRow
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr(err, what)
	}

	bookings := make([]*models.Booking, 0, len(rows))
	for i := range rows {
		bookings = append(bookings, rows[i].toModel())
	}
	return bookings, nil
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.Status == "" {
		booking.Status = models.StatusWaiting
	}

	query := `INSERT INTO bookings (start_date, end_date, item_id, booker_id, status) VALUES (?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		dbTime(booking.Start),
		dbTime(booking.End),
		booking.ItemID,
		booking.BookerID,
		string(booking.Status),
	)
	if err != nil {
		return wrapErr(err, "create booking")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	bookings, err := db.selectBookings(ctx, db.bookingsQuery().Where(goqu.I("b.id").Eq(id)), "get booking")
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return bookings[0], nil
}

// DecideBooking applies the WAITING -> status transition. The status guard is
// part of the UPDATE, so of two concurrent decisions only one affects a row.
func (db *DB) DecideBooking(ctx context.Context, id int64, status models.BookingStatus) error {
	query := `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`
	result, err := db.ExecContext(ctx, query, string(status), id, string(models.StatusWaiting))
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: booking %d is not waiting for approval", domain.ErrValidation, id)
	}
	return nil
}

// FindBookings returns the bookings matching filter, newest start first.
func (db *DB) FindBookings(ctx context.Context, filter domain.BookingFilter) ([]*models.Booking, error) {
	ds := db.bookingsQuery().
		Where(filterExpressions(filter)...).
		Order(goqu.I("b.start_date").Desc(), goqu.I("b.id").Desc())

	if filter.Page.Size > 0 {
		ds = ds.Limit(uint(filter.Page.Limit())).Offset(uint(filter.Page.Offset()))
	}

	return db.selectBookings(ctx, ds, "find bookings")
}

func filterExpressions(f domain.BookingFilter) []exp.Expression {
	var where []exp.Expression
	if f.BookerID != 0 {
		where = append(where, goqu.I("b.booker_id").Eq(f.BookerID))
	}
	if f.OwnerID != 0 {
		where = append(where, goqu.I("i.owner_id").Eq(f.OwnerID))
	}
	if f.Status != "" {
		where = append(where, goqu.I("b.status").Eq(string(f.Status)))
	}
	if !f.StartBefore.IsZero() {
		where = append(where, goqu.I("b.start_date").Lt(dbTime(f.StartBefore)))
	}
	if !f.StartAfter.IsZero() {
		where = append(where, goqu.I("b.start_date").Gt(dbTime(f.StartAfter)))
	}
	if !f.EndBefore.IsZero() {
		where = append(where, goqu.I("b.end_date").Lt(dbTime(f.EndBefore)))
	}
	if !f.EndAfter.IsZero() {
		where = append(where, goqu.I("b.end_date").Gt(dbTime(f.EndAfter)))
	}
	return where
}

// GetApprovedBookingsByItemIDs loads every APPROVED booking of the given items
// in a single query.
func (db *DB) GetApprovedBookingsByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.Booking, error) {
	if len(itemIDs) == 0 {
		return []*models.Booking{}, nil
	}

	ds := db.bookingsQuery().
		Where(
			goqu.I("b.item_id").In(itemIDs),
			goqu.I("b.status").Eq(string(models.StatusApproved)),
		).
		Order(goqu.I("b.start_date").Asc())

	return db.selectBookings(ctx, ds, "get approved bookings")
}

// HasFinishedBooking reports whether bookerID has an APPROVED booking of itemID
// that ended before the given instant.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, before time.Time) (bool, error) {
	query := `SELECT EXISTS (
				SELECT 1 FROM bookings
				WHERE booker_id = ? AND item_id = ? AND status = ? AND end_date < ?
			)`
	var exists bool
	err := db.QueryRowContext(ctx, query, bookerID, itemID, string(models.StatusApproved), dbTime(before)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check finished booking: %w", err)
	}
	return exists, nil
}
