package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// MemoryStore is an in-process implementation of domain.Repository with the
// same observable behavior as the SQLite store. Reads return copies.
type MemoryStore struct {
	mu sync.RWMutex

	users    map[int64]models.User
	items    map[int64]models.Item
	bookings map[int64]models.Booking
	comments map[int64]models.Comment
	requests map[int64]models.ItemRequest

	seq struct{ user, item, booking, comment, request int64 }
}

var _ domain.Repository = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]models.User),
		items:    make(map[int64]models.Item),
		bookings: make(map[int64]models.Booking),
		comments: make(map[int64]models.Comment),
		requests: make(map[int64]models.ItemRequest),
	}
}

func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", domain.ErrNotFound, kind, id)
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// users

func (s *MemoryStore) emailTaken(email string, exceptID int64) bool {
	for id, u := range s.users {
		if id != exceptID && u.Email == email {
			return true
		}
	}
	return false
}

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(user.Email, 0) {
		return fmt.Errorf("%w: users.email", domain.ErrConflict)
	}
	s.seq.user++
	user.ID = s.seq.user
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (s *MemoryStore) GetAllUsers(context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) UpdateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return notFound("user", user.ID)
	}
	if s.emailTaken(user.Email, user.ID) {
		return fmt.Errorf("%w: users.email", domain.ErrConflict)
	}
	s.users[user.ID] = *user
	return nil
}

// DeleteUser removes the user with everything that references them.
func (s *MemoryStore) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return notFound("user", id)
	}
	delete(s.users, id)

	for itemID, item := range s.items {
		if item.OwnerID == id {
			s.deleteItemLocked(itemID)
		}
	}
	for bid, b := range s.bookings {
		if b.BookerID == id {
			delete(s.bookings, bid)
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID == id {
			delete(s.comments, cid)
		}
	}
	for rid, r := range s.requests {
		if r.RequesterID == id {
			s.deleteRequestLocked(rid)
		}
	}
	return nil
}

// items

func (s *MemoryStore) CreateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[item.OwnerID]; !ok {
		return fmt.Errorf("failed to create item: owner %d does not exist", item.OwnerID)
	}
	if item.RequestID != nil {
		if _, ok := s.requests[*item.RequestID]; !ok {
			return fmt.Errorf("failed to create item: request %d does not exist", *item.RequestID)
		}
	}
	s.seq.item++
	item.ID = s.seq.item
	s.items[item.ID] = copyItem(*item)
	return nil
}

func copyItem(item models.Item) models.Item {
	if item.RequestID != nil {
		id := *item.RequestID
		item.RequestID = &id
	}
	return item
}

func (s *MemoryStore) GetItemByID(_ context.Context, id int64) (*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, notFound("item", id)
	}
	item = copyItem(item)
	return &item, nil
}

func (s *MemoryStore) UpdateItem(_ context.Context, item *models.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return notFound("item", item.ID)
	}
	stored.Name = item.Name
	stored.Description = item.Description
	stored.Available = item.Available
	s.items[item.ID] = stored
	return nil
}

func (s *MemoryStore) DeleteItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return notFound("item", id)
	}
	s.deleteItemLocked(id)
	return nil
}

func (s *MemoryStore) deleteItemLocked(id int64) {
	delete(s.items, id)
	for bid, b := range s.bookings {
		if b.ItemID == id {
			delete(s.bookings, bid)
		}
	}
	for cid, c := range s.comments {
		if c.ItemID == id {
			delete(s.comments, cid)
		}
	}
}

func (s *MemoryStore) selectItems(match func(models.Item) bool, page *models.Page) []*models.Item {
	items := make([]*models.Item, 0)
	for _, item := range s.items {
		if match(item) {
			item := copyItem(item)
			items = append(items, &item)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	if page != nil {
		items = window(items, *page)
	}
	return items
}

func (s *MemoryStore) GetItemsByOwner(_ context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectItems(func(item models.Item) bool { return item.OwnerID == ownerID }, &page), nil
}

func (s *MemoryStore) SearchItems(_ context.Context, text string, page models.Page) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(text)
	return s.selectItems(func(item models.Item) bool {
		return item.Available &&
			(strings.Contains(strings.ToLower(item.Name), needle) ||
				strings.Contains(strings.ToLower(item.Description), needle))
	}, &page), nil
}

func (s *MemoryStore) GetItemsByRequestIDs(_ context.Context, requestIDs []int64) ([]*models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(requestIDs)
	return s.selectItems(func(item models.Item) bool {
		return item.RequestID != nil && wanted[*item.RequestID]
	}, nil), nil
}

// bookings

func (s *MemoryStore) CreateBooking(_ context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[booking.ItemID]; !ok {
		return fmt.Errorf("failed to create booking: item %d does not exist", booking.ItemID)
	}
	if _, ok := s.users[booking.BookerID]; !ok {
		return fmt.Errorf("failed to create booking: user %d does not exist", booking.BookerID)
	}
	if booking.Status == "" {
		booking.Status = models.StatusWaiting
	}
	s.seq.booking++
	booking.ID = s.seq.booking

	stored := *booking
	stored.Start = stored.Start.UTC()
	stored.End = stored.End.UTC()
	stored.Item, stored.Booker = nil, nil
	s.bookings[booking.ID] = stored
	return nil
}

// joined returns a copy of b with Item and Booker filled. Callers hold mu.
func (s *MemoryStore) joined(b models.Booking) *models.Booking {
	item := copyItem(s.items[b.ItemID])
	booker := s.users[b.BookerID]
	b.Item = &item
	b.Booker = &booker
	return &b
}

func (s *MemoryStore) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, notFound("booking", id)
	}
	return s.joined(b), nil
}

func (s *MemoryStore) DecideBooking(_ context.Context, id int64, status models.BookingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok || b.Status != models.StatusWaiting {
		return fmt.Errorf("%w: booking %d is not waiting for approval", domain.ErrValidation, id)
	}
	b.Status = status
	s.bookings[id] = b
	return nil
}

func (s *MemoryStore) FindBookings(_ context.Context, filter domain.BookingFilter) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Booking, 0)
	for _, b := range s.bookings {
		if filter.Match(&b, s.items[b.ItemID].OwnerID) {
			result = append(result, s.joined(b))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Start.Equal(result[j].Start) {
			return result[i].Start.After(result[j].Start)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Page.Size > 0 {
		result = window(result, filter.Page)
	}
	return result, nil
}

func (s *MemoryStore) GetApprovedBookingsByItemIDs(_ context.Context, itemIDs []int64) ([]*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(itemIDs)
	result := make([]*models.Booking, 0)
	for _, b := range s.bookings {
		if wanted[b.ItemID] && b.Status == models.StatusApproved {
			result = append(result, s.joined(b))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

func (s *MemoryStore) HasFinishedBooking(_ context.Context, bookerID, itemID int64, before time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.bookings {
		if b.BookerID == bookerID && b.ItemID == itemID &&
			b.Status == models.StatusApproved && b.End.Before(before) {
			return true, nil
		}
	}
	return false, nil
}

// comments

func (s *MemoryStore) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[comment.ItemID]; !ok {
		return fmt.Errorf("failed to create comment: item %d does not exist", comment.ItemID)
	}
	if _, ok := s.users[comment.AuthorID]; !ok {
		return fmt.Errorf("failed to create comment: user %d does not exist", comment.AuthorID)
	}
	s.seq.comment++
	comment.ID = s.seq.comment
	stored := *comment
	stored.Created = stored.Created.UTC()
	stored.AuthorName = ""
	s.comments[comment.ID] = stored
	return nil
}

func (s *MemoryStore) GetCommentsByItemIDs(_ context.Context, itemIDs []int64) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := toSet(itemIDs)
	result := make([]*models.Comment, 0)
	for _, c := range s.comments {
		if wanted[c.ItemID] {
			c := c
			c.AuthorName = s.users[c.AuthorID].Name
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// requests

func (s *MemoryStore) CreateRequest(_ context.Context, request *models.ItemRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[request.RequesterID]; !ok {
		return fmt.Errorf("failed to create request: user %d does not exist", request.RequesterID)
	}
	s.seq.request++
	request.ID = s.seq.request
	stored := *request
	stored.Created = stored.Created.UTC()
	stored.Items = nil
	s.requests[request.ID] = stored
	return nil
}

func (s *MemoryStore) GetRequestByID(_ context.Context, id int64) (*models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.requests[id]
	if !ok {
		return nil, notFound("request", id)
	}
	return &r, nil
}

func (s *MemoryStore) selectRequests(match func(models.ItemRequest) bool, page models.Page) []*models.ItemRequest {
	result := make([]*models.ItemRequest, 0)
	for _, r := range s.requests {
		if match(r) {
			r := r
			result = append(result, &r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Created.Equal(result[j].Created) {
			return result[i].Created.After(result[j].Created)
		}
		return result[i].ID > result[j].ID
	})
	return window(result, page)
}

func (s *MemoryStore) GetRequestsByRequester(_ context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectRequests(func(r models.ItemRequest) bool { return r.RequesterID == requesterID }, page), nil
}

func (s *MemoryStore) GetRequestsExcept(_ context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selectRequests(func(r models.ItemRequest) bool { return r.RequesterID != requesterID }, page), nil
}

func (s *MemoryStore) deleteRequestLocked(id int64) {
	delete(s.requests, id)
	for itemID, item := range s.items {
		if item.RequestID != nil && *item.RequestID == id {
			item.RequestID = nil
			s.items[itemID] = item
		}
	}
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func window[T any](rows []T, page models.Page) []T {
	offset := page.Offset()
	if offset >= len(rows) {
		return rows[:0]
	}
	end := offset + page.Limit()
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
