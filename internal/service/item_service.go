package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewItemService(repo domain.Repository, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item models.Item) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}

	item.Name = strings.TrimSpace(item.Name)
	item.Description = strings.TrimSpace(item.Description)
	if item.Name == "" {
		return nil, domain.Invalid("item name is required")
	}
	if item.Description == "" {
		return nil, domain.Invalid("item description is required")
	}

	if item.RequestID != 0 {
		// An item answering an unknown request is still created, just unlinked.
		if _, err := s.repo.GetRequest(ctx, item.RequestID); errors.Is(err, domain.ErrNotFound) {
			s.logger.Debug().Int64("request_id", item.RequestID).Msg("unknown item request, dropping link")
			item.RequestID = 0
		} else if err != nil {
			return nil, err
		}
	}

	item.ID = 0
	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, &item); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return &item, nil
}

func (s *ItemService) GetItem(ctx context.Context, itemID, requesterID int64) (*models.ItemView, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	views, err := s.views(ctx, []*models.Item{item}, requesterID)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *ItemService) GetOwnerItems(ctx context.Context, ownerID int64, from, size int) ([]*models.ItemView, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	page, err := newPage(from, size)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItemsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, items, ownerID)
}

func (s *ItemService) UpdateItem(ctx context.Context, itemID, ownerID int64, patch models.ItemPatch) (*models.Item, error) {
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, domain.ErrItemForbidden
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, domain.Invalid("item name must not be blank")
		}
		item.Name = name
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, domain.Invalid("item description must not be blank")
		}
		item.Description = description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// SearchItems matches available items by name or description. Blank text
// matches nothing.
func (s *ItemService) SearchItems(ctx context.Context, text string, from, size int) ([]*models.Item, error) {
	page, err := newPage(from, size)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchItems(ctx, text, page)
}

func (s *ItemService) AddComment(ctx context.Context, itemID, authorID int64, text string) (*models.Comment, error) {
	if _, err := s.repo.GetUserByID(ctx, authorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyComment
	}

	now := s.now()
	used, err := s.repo.HasFinishedBooking(ctx, itemID, authorID, now)
	if err != nil {
		return nil, err
	}
	if !used {
		return nil, domain.ErrNoCompletedBooking
	}

	comment := &models.Comment{Text: text, ItemID: itemID, AuthorID: authorID, Created: now}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// views attaches comments to every item, and the surrounding bookings to the
// items the viewer owns.
func (s *ItemService) views(ctx context.Context, items []*models.Item, viewerID int64) ([]*models.ItemView, error) {
	ids := make([]int64, 0, len(items))
	owned := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
		if it.OwnerID == viewerID {
			owned = append(owned, it.ID)
		}
	}

	comments, err := s.repo.GetItemsComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentsByItem := make(map[int64][]models.Comment, len(items))
	for _, c := range comments {
		commentsByItem[c.ItemID] = append(commentsByItem[c.ItemID], *c)
	}

	bookingsByItem := make(map[int64][]*models.Booking, len(owned))
	if len(owned) > 0 {
		bookings, err := s.repo.GetItemsBookings(ctx, owned)
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			bookingsByItem[b.ItemID] = append(bookingsByItem[b.ItemID], b)
		}
	}

	now := s.now()
	views := make([]*models.ItemView, 0, len(items))
	for _, it := range items {
		view := &models.ItemView{Item: *it, Comments: commentsByItem[it.ID]}
		if view.Comments == nil {
			view.Comments = []models.Comment{}
		}
		if it.OwnerID == viewerID {
			view.LastBooking, view.NextBooking = surroundingBookings(bookingsByItem[it.ID], now)
		}
		views = append(views, view)
	}
	return views, nil
}

// surroundingBookings picks the booking that started most recently before now
// and the one starting soonest after now.
func surroundingBookings(bookings []*models.Booking, now time.Time) (last, next *models.BookingShort) {
	var lastB, nextB *models.Booking
	for _, b := range bookings {
		switch {
		case b.Start.Before(now):
			if lastB == nil || b.Start.After(lastB.Start) {
				lastB = b
			}
		case b.Start.After(now):
			if nextB == nil || b.Start.Before(nextB.Start) {
				nextB = b
			}
		}
	}
	if lastB != nil {
		last = &models.BookingShort{ID: lastB.ID, BookerID: lastB.BookerID}
	}
	if nextB != nil {
		next = &models.BookingShort{ID: nextB.ID, BookerID: nextB.BookerID}
	}
	return last, next
}

var _ domain.ItemService = (*ItemService)(nil)
