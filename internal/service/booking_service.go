package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// defaultExportLimit caps the number of rows a single export may contain.
const defaultExportLimit = 10000

// BookingService admits, confirms and lists bookings. Slot checks and the
// writes that depend on them run under a per-item lock.
type BookingService struct {
	repo     domain.Repository
	locker   domain.ItemLocker
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
	now      func() time.Time

	exportLimit int
}

func NewBookingService(repo domain.Repository, locker domain.ItemLocker, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		locker:   locker,
		eventBus: eventBus,
		logger:   logger,
		now:      time.Now,

		exportLimit: defaultExportLimit,
	}
}

func (s *BookingService) Add(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, bookerID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, domain.ErrItemUnavailable
	}
	if item.OwnerID == bookerID {
		return nil, domain.ErrSelfBooking
	}

	unlock, err := s.locker.Lock(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock item %d: %w", itemID, err)
	}
	defer unlock()

	if err := s.validateSlot(ctx, itemID, 0, start, end); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		Start:    start,
		End:      end,
		ItemID:   itemID,
		BookerID: bookerID,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	metrics.IncBooking("created")
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("item_id", itemID).
		Int64("booker_id", bookerID).
		Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, bookerID)

	return booking, nil
}

func (s *BookingService) Confirm(ctx context.Context, bookingID int64, approved bool, ownerID int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	if booking.OwnerID != ownerID {
		return nil, domain.ErrNotItemOwner
	}

	unlock, err := s.locker.Lock(ctx, booking.ItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock item %d: %w", booking.ItemID, err)
	}
	defer unlock()

	// Re-read under the lock: another confirmation may have won.
	booking, err = s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.StatusWaiting {
		return nil, domain.ErrNotWaiting
	}

	status, eventType, action := models.StatusRejected, events.EventBookingRejected, "rejected"
	if approved {
		if err := s.validateSlot(ctx, booking.ItemID, booking.ID, booking.Start, booking.End); err != nil {
			return nil, err
		}
		status, eventType, action = models.StatusApproved, events.EventBookingApproved, "approved"
	}

	err = s.repo.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, status)
	if errors.Is(err, domain.ErrConcurrentModification) {
		s.logger.Warn().Int64("booking_id", booking.ID).Int64("version", booking.Version).Msg("booking changed concurrently")
		return nil, fmt.Errorf("%w: booking %d was modified concurrently", domain.ErrNotWaiting, booking.ID)
	}
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	metrics.IncBooking(action)
	s.logger.Info().
		Int64("booking_id", updated.ID).
		Int64("owner_id", ownerID).
		Str("status", updated.Status).
		Msg("booking confirmed")
	s.publishEvent(eventType, updated, ownerID)

	return updated, nil
}

func (s *BookingService) Find(ctx context.Context, bookingID, requesterID int64) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, requesterID); err != nil {
		return nil, err
	}
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != requesterID && booking.OwnerID != requesterID {
		return nil, domain.ErrNotBookingParticipant
	}
	return booking, nil
}

func (s *BookingService) ListByUser(ctx context.Context, bookerID int64, state models.BookingState, from, size int) ([]*models.Booking, error) {
	return s.list(ctx, models.BookingFilter{BookerID: bookerID}, bookerID, state, from, size)
}

func (s *BookingService) ListByOwnedItems(ctx context.Context, ownerID int64, state models.BookingState, from, size int) ([]*models.Booking, error) {
	return s.list(ctx, models.BookingFilter{OwnerID: ownerID}, ownerID, state, from, size)
}

// ExportOwnerBookings returns the bookings of the owner's items in the state,
// newest first, for spreadsheet export. truncated reports that more bookings
// matched than the export limit allows.
func (s *BookingService) ExportOwnerBookings(ctx context.Context, ownerID int64, state models.BookingState) (bookings []*models.Booking, truncated bool, err error) {
	bookings, err = s.ListByOwnedItems(ctx, ownerID, state, 0, s.exportLimit+1)
	if err != nil {
		return nil, false, err
	}
	if len(bookings) > s.exportLimit {
		s.logger.Warn().Int64("owner_id", ownerID).Int("limit", s.exportLimit).Msg("booking export truncated")
		return bookings[:s.exportLimit], true, nil
	}
	return bookings, false, nil
}

func (s *BookingService) list(ctx context.Context, filter models.BookingFilter, actorID int64, state models.BookingState, from, size int) ([]*models.Booking, error) {
	parsed, ok := models.ParseBookingState(string(state))
	if !ok {
		return nil, domain.UnknownState(string(state))
	}
	page, err := newPage(from, size)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, actorID); err != nil {
		return nil, err
	}

	filter.State = parsed
	filter.Now = s.now()
	filter.Page = page
	return s.repo.ListBookings(ctx, filter)
}

// validateSlot checks the requested interval. Only APPROVED bookings block a
// slot, and a booking conflicts when one of its endpoints lies inside
// [start, end].
func (s *BookingService) validateSlot(ctx context.Context, itemID, excludeID int64, start, end time.Time) error {
	if !end.After(start) {
		return domain.ErrEndBeforeStart
	}
	now := s.now()
	if start.Before(now) {
		return domain.ErrStartInPast
	}
	if end.Before(now) {
		return domain.ErrEndInPast
	}

	overlapping, err := s.repo.FindOverlapping(ctx, itemID, excludeID, start, end)
	if err != nil {
		return err
	}
	for _, other := range overlapping {
		if other.Status == models.StatusApproved {
			metrics.IncSlotConflict()
			s.logger.Debug().
				Int64("item_id", itemID).
				Int64("conflicting_booking_id", other.ID).
				Msg("time slot already booked")
			return domain.ErrSlotTaken
		}
	}
	return nil
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, changedByID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ItemID:      booking.ItemID,
		ItemName:    booking.ItemName,
		OwnerID:     booking.OwnerID,
		BookerID:    booking.BookerID,
		BookerName:  booking.BookerName,
		Status:      booking.Status,
		Start:       booking.Start,
		End:         booking.End,
		ChangedByID: changedByID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func newPage(from, size int) (models.Page, error) {
	if from < 0 || size <= 0 {
		return models.Page{}, domain.ErrInvalidPage
	}
	return models.Page{From: from, Size: size}, nil
}

var _ domain.BookingService = (*BookingService)(nil)
