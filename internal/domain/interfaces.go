package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, id int64) error
	GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	GetItemsByRequestIDs(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	// GetBooking returns the booking with Item and Booker filled.
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	// DecideBooking moves a WAITING booking to status. It fails with
	// ErrValidation when the booking is no longer WAITING.
	DecideBooking(ctx context.Context, id int64, status models.BookingStatus) error
	FindBookings(ctx context.Context, filter BookingFilter) ([]*models.Booking, error)
	GetApprovedBookingsByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.Booking, error)
	HasFinishedBooking(ctx context.Context, bookerID, itemID int64, before time.Time) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	// GetCommentsByItemIDs returns comments ordered by id with AuthorName filled.
	GetCommentsByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequester(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error)
	GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error)
}

// Repository is the full persistence surface used by the services.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	RequestRepository
	Ping(ctx context.Context) error
	Close() error
}

type RateLimitRepository interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	CreateBooking(ctx context.Context, req models.BookingRequest, bookerID int64) (*models.Booking, error)
	ApproveBooking(ctx context.Context, bookingID, userID int64, approved bool) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID, userID int64) (*models.Booking, error)
	GetBookerBookings(ctx context.Context, bookerID int64, state string, page models.Page) ([]*models.Booking, error)
	GetOwnerBookings(ctx context.Context, ownerID int64, state string, page models.Page) ([]*models.Booking, error)
}

type ItemService interface {
	CreateItem(ctx context.Context, item *models.Item, ownerID int64) (*models.Item, error)
	UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID, ownerID int64) error
	GetItem(ctx context.Context, itemID, userID int64) (*models.ItemDetails, error)
	GetOwnerItems(ctx context.Context, ownerID int64, page models.Page) ([]*models.ItemDetails, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	CreateComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type RequestService interface {
	CreateRequest(ctx context.Context, description string, requesterID int64) (*models.ItemRequest, error)
	GetOwnRequests(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error)
	GetOtherRequests(ctx context.Context, userID int64, page models.Page) ([]*models.ItemRequest, error)
	GetRequest(ctx context.Context, requestID, userID int64) (*models.ItemRequest, error)
}
