package models

import (
	"strings"
	"time"
)

type Booking struct {
	ID         int64     `json:"id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ItemID     int64     `json:"item_id"`
	ItemName   string    `json:"item_name"`
	OwnerID    int64     `json:"owner_id"`
	BookerID   int64     `json:"booker_id"`
	BookerName string    `json:"booker_name"`
	Status     string    `json:"status"` // WAITING, APPROVED, REJECTED
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version"`
}

// BookingState selects bookings by temporal position or status at query time.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// ParseBookingState accepts a state token case-insensitively. An empty token means ALL.
func ParseBookingState(raw string) (BookingState, bool) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return StateAll, true
	}
	switch s := BookingState(token); s {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return s, true
	}
	return "", false
}

// Matches reports whether the booking falls into the state relative to now.
func (s BookingState) Matches(b *Booking, now time.Time) bool {
	switch s {
	case StateAll:
		return true
	case StateCurrent:
		return b.Start.Before(now) && b.End.After(now)
	case StatePast:
		return b.End.Before(now)
	case StateFuture:
		return b.Start.After(now)
	case StateWaiting:
		return b.Status == StatusWaiting
	case StateRejected:
		return b.Status == StatusRejected
	default:
		return false
	}
}

// BookingFilter describes a listing query. Exactly one of BookerID or OwnerID is set.
type BookingFilter struct {
	BookerID int64
	OwnerID  int64
	State    BookingState
	Now      time.Time
	Page     Page
}

// BookingShort is the compact reference shown on an owner's item view.
type BookingShort struct {
	ID       int64 `json:"id"`
	BookerID int64 `json:"bookerId"`
}
