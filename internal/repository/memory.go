package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// MemoryRepository keeps every entity in process memory. It satisfies
// domain.Repository and is used for tests and the "memory" database driver.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[int64]models.User
	items    map[int64]models.Item
	bookings map[int64]models.Booking
	comments map[int64]models.Comment
	requests map[int64]models.ItemRequest
	lastID   map[string]int64
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[int64]models.User),
		items:    make(map[int64]models.Item),
		bookings: make(map[int64]models.Booking),
		comments: make(map[int64]models.Comment),
		requests: make(map[int64]models.ItemRequest),
		lastID:   make(map[string]int64),
		now:      time.Now,
	}
}

func (r *MemoryRepository) nextID(table string) int64 {
	r.lastID[table]++
	return r.lastID[table]
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return ctx.Err() }

func (r *MemoryRepository) Close() error { return nil }

// Users

func (r *MemoryRepository) emailOwner(email string) (int64, bool) {
	for id, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return id, true
		}
	}
	return 0, false
}

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emailOwner(user.Email); taken {
		return domain.ErrEmailTaken
	}

	now := r.now()
	user.ID = r.nextID("users")
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emailOwner(email)
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u := r.users[id]
	return &u, nil
}

func (r *MemoryRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[id]
	return ok, nil
}

func (r *MemoryRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		u := u
		users = append(users, &u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r *MemoryRepository) UpdateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if owner, taken := r.emailOwner(user.Email); taken && owner != user.ID {
		return domain.ErrEmailTaken
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = r.now()
	r.users[user.ID] = *user
	return nil
}

// DeleteUser removes the user together with everything that references them.
func (r *MemoryRepository) DeleteUser(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)

	for itemID, it := range r.items {
		if it.OwnerID == id {
			delete(r.items, itemID)
		}
	}
	for reqID, req := range r.requests {
		if req.RequesterID == id {
			delete(r.requests, reqID)
		}
	}
	for itemID, it := range r.items {
		if _, ok := r.requests[it.RequestID]; it.RequestID != 0 && !ok {
			it.RequestID = 0
			r.items[itemID] = it
		}
	}
	for bookingID, b := range r.bookings {
		if _, ok := r.items[b.ItemID]; b.BookerID == id || !ok {
			delete(r.bookings, bookingID)
		}
	}
	for commentID, c := range r.comments {
		if _, ok := r.items[c.ItemID]; c.AuthorID == id || !ok {
			delete(r.comments, commentID)
		}
	}
	return nil
}

// Items

func (r *MemoryRepository) CreateItem(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[item.OwnerID]; !ok {
		return domain.ErrUserNotFound
	}

	now := r.now()
	item.ID = r.nextID("items")
	item.CreatedAt = now
	item.UpdatedAt = now
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryRepository) GetItemByID(ctx context.Context, id int64) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &it, nil
}

func (r *MemoryRepository) UpdateItem(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok {
		return domain.ErrItemNotFound
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = r.now()
	r.items[item.ID] = *item
	return nil
}

func (r *MemoryRepository) sortedItems(keep func(models.Item) bool) []*models.Item {
	items := make([]*models.Item, 0)
	for _, it := range r.items {
		if keep(it) {
			it := it
			items = append(items, &it)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

func (r *MemoryRepository) GetItemsByOwner(ctx context.Context, ownerID int64, page models.Page) ([]*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.sortedItems(func(it models.Item) bool { return it.OwnerID == ownerID })
	lo, hi := page.Slice(len(items))
	return items[lo:hi], nil
}

func (r *MemoryRepository) SearchItems(ctx context.Context, text string, page models.Page) ([]*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(text)
	items := r.sortedItems(func(it models.Item) bool {
		return it.Available &&
			(strings.Contains(strings.ToLower(it.Name), needle) ||
				strings.Contains(strings.ToLower(it.Description), needle))
	})
	lo, hi := page.Slice(len(items))
	return items[lo:hi], nil
}

func (r *MemoryRepository) GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := idSet(requestIDs)
	return r.sortedItems(func(it models.Item) bool {
		_, ok := wanted[it.RequestID]
		return it.RequestID != 0 && ok
	}), nil
}

// Bookings

func (r *MemoryRepository) withSnapshots(b models.Booking) *models.Booking {
	if it, ok := r.items[b.ItemID]; ok {
		b.ItemName = it.Name
		b.OwnerID = it.OwnerID
	}
	if u, ok := r.users[b.BookerID]; ok {
		b.BookerName = u.Name
	}
	return &b
}

func (r *MemoryRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[booking.ItemID]; !ok {
		return domain.ErrItemNotFound
	}
	if _, ok := r.users[booking.BookerID]; !ok {
		return domain.ErrUserNotFound
	}

	now := r.now()
	booking.ID = r.nextID("bookings")
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	r.bookings[booking.ID] = *booking
	*booking = *r.withSnapshots(*booking)
	return nil
}

func (r *MemoryRepository) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, domain.ErrBookingNotFound
	}
	return r.withSnapshots(b), nil
}

func (r *MemoryRepository) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return domain.ErrBookingNotFound
	}
	if b.Version != version {
		return domain.ErrConcurrentModification
	}
	b.Status = status
	b.Version++
	b.UpdatedAt = r.now()
	r.bookings[id] = b
	return nil
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

func (r *MemoryRepository) FindOverlapping(ctx context.Context, itemID, excludeID int64, start, end time.Time) ([]*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]*models.Booking, 0)
	for _, b := range r.bookings {
		if b.ItemID != itemID || b.ID == excludeID {
			continue
		}
		if within(b.Start, start, end) || within(b.End, start, end) {
			found = append(found, r.withSnapshots(b))
		}
	}
	sortByStartDesc(found)
	return found, nil
}

func (r *MemoryRepository) ListBookings(ctx context.Context, filter models.BookingFilter) ([]*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]*models.Booking, 0)
	for _, b := range r.bookings {
		full := r.withSnapshots(b)
		if filter.BookerID != 0 && full.BookerID != filter.BookerID {
			continue
		}
		if filter.OwnerID != 0 && full.OwnerID != filter.OwnerID {
			continue
		}
		if !filter.State.Matches(full, filter.Now) {
			continue
		}
		found = append(found, full)
	}
	sortByStartDesc(found)

	lo, hi := filter.Page.Slice(len(found))
	return found[lo:hi], nil
}

func (r *MemoryRepository) GetItemsBookings(ctx context.Context, itemIDs []int64) ([]*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := idSet(itemIDs)
	found := make([]*models.Booking, 0)
	for _, b := range r.bookings {
		if _, ok := wanted[b.ItemID]; ok {
			found = append(found, r.withSnapshots(b))
		}
	}
	sortByStartDesc(found)
	return found, nil
}

func (r *MemoryRepository) HasFinishedBooking(ctx context.Context, itemID, bookerID int64, before time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.bookings {
		if b.ItemID == itemID && b.BookerID == bookerID &&
			b.Status == models.StatusApproved && b.End.Before(before) {
			return true, nil
		}
	}
	return false, nil
}

func sortByStartDesc(bookings []*models.Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].ID > bookings[j].ID
		}
		return bookings[i].Start.After(bookings[j].Start)
	})
}

// Comments

func (r *MemoryRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	author, ok := r.users[comment.AuthorID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if _, ok := r.items[comment.ItemID]; !ok {
		return domain.ErrItemNotFound
	}

	comment.ID = r.nextID("comments")
	if comment.Created.IsZero() {
		comment.Created = r.now()
	}
	comment.AuthorName = author.Name
	r.comments[comment.ID] = *comment
	return nil
}

func (r *MemoryRepository) GetItemsComments(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := idSet(itemIDs)
	var found []*models.Comment
	for _, c := range r.comments {
		if _, ok := wanted[c.ItemID]; !ok {
			continue
		}
		c := c
		if u, ok := r.users[c.AuthorID]; ok {
			c.AuthorName = u.Name
		}
		found = append(found, &c)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

// Item requests

func (r *MemoryRepository) CreateRequest(ctx context.Context, request *models.ItemRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[request.RequesterID]; !ok {
		return domain.ErrUserNotFound
	}

	request.ID = r.nextID("requests")
	if request.Created.IsZero() {
		request.Created = r.now()
	}
	stored := *request
	stored.Items = nil
	r.requests[request.ID] = stored
	return nil
}

func (r *MemoryRepository) GetRequest(ctx context.Context, id int64) (*models.ItemRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return &req, nil
}

func (r *MemoryRepository) sortedRequests(keep func(models.ItemRequest) bool) []*models.ItemRequest {
	found := make([]*models.ItemRequest, 0)
	for _, req := range r.requests {
		if keep(req) {
			req := req
			found = append(found, &req)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Created.Equal(found[j].Created) {
			return found[i].ID > found[j].ID
		}
		return found[i].Created.After(found[j].Created)
	})
	return found
}

func (r *MemoryRepository) GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedRequests(func(req models.ItemRequest) bool { return req.RequesterID == requesterID }), nil
}

func (r *MemoryRepository) GetRequestsExcept(ctx context.Context, requesterID int64, page models.Page) ([]*models.ItemRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := r.sortedRequests(func(req models.ItemRequest) bool { return req.RequesterID != requesterID })
	lo, hi := page.Slice(len(found))
	return found[lo:hi], nil
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

var _ domain.Repository = (*MemoryRepository)(nil)
