package domain

import (
	"context"
	"io"
	"time"

	"shareit/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error)
	SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error)
	GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error
	// FindOverlapping returns bookings of the item, other than excludeID, whose
	// start or end lies within [start, end].
	FindOverlapping(ctx context.Context, itemID, excludeID int64, start, end time.Time) ([]*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error)
	GetItemsBookings(ctx context.Context, itemIDs []int64) ([]*models.Booking, error)
	HasFinishedBooking(ctx context.Context, itemID, bookerID int64, before time.Time) (bool, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetItemsComments(ctx context.Context, itemIDs []int64) ([]*models.Comment, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, request *models.ItemRequest) error
	GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error)
}

// Repository is the full storage contract. The in-memory store and the SQL
// database both satisfy it.
type Repository interface {
	UserRepository
	ItemRepository
	BookingRepository
	CommentRepository
	RequestRepository
	Ping(ctx context.Context) error
	io.Closer
}

// ItemLocker serializes slot checks and writes for a single item.
type ItemLocker interface {
	Lock(ctx context.Context, itemID int64) (unlock func(), err error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BrokerPublisher delivers serialized events to an external message broker.
// key groups related events, e.g. every event of one booking.
type BrokerPublisher interface {
	Publish(ctx context.Context, eventType, key string, body []byte) error
	Close() error
}

type BookingService interface {
	Add(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error)
	Confirm(ctx context.Context, bookingID int64, approved bool, ownerID int64) (*models.Booking, error)
	Find(ctx context.Context, bookingID, requesterID int64) (*models.Booking, error)
	ListByUser(ctx context.Context, bookerID int64, state models.BookingState, from, size int) ([]*models.Booking, error)
	ListByOwnedItems(ctx context.Context, ownerID int64, state models.BookingState, from, size int) ([]*models.Booking, error)
}

type UserService interface {
	CreateUser(ctx context.Context, name, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, item models.Item) (*models.Item, error)
	GetItem(ctx context.Context, itemID, requesterID int64) (*models.ItemView, error)
	GetOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemView, error)
	UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error)
	SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error)
	AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error)
}

type RequestService interface {
	CreateRequest(ctx context.Context, requesterID int64, description string) (*models.ItemRequest, error)
	GetOwnRequests(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error)
	GetOtherRequests(ctx context.Context, requesterID int64, from, size int) ([]*models.ItemRequest, error)
	GetRequest(ctx context.Context, requesterID, requestID int64) (*models.ItemRequest, error)
}
