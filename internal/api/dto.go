package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

const localTimeLayout = "2006-01-02T15:04:05"

// flexTime accepts RFC3339 timestamps and zone-less local ones.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.ParseInLocation(localTimeLayout, raw, time.Local)
	if err != nil {
		return fmt.Errorf("invalid time %q: expected RFC3339 or %s", raw, localTimeLayout)
	}
	t.Time = parsed
	return nil
}

type userRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type itemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *int64  `json:"requestId"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type itemRequestCreate struct {
	Description string `json:"description"`
}

type bookingRequest struct {
	ItemID int64    `json:"itemId"`
	Start  flexTime `json:"start"`
	End    flexTime `json:"end"`
}

type refDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookingDTO struct {
	ID     int64     `json:"id"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
	Item   refDTO    `json:"item"`
	Booker refDTO    `json:"booker"`
}

func toBookingDTO(b *models.Booking) bookingDTO {
	return bookingDTO{
		ID:     b.ID,
		Start:  b.Start,
		End:    b.End,
		Status: b.Status,
		Item:   refDTO{ID: b.ItemID, Name: b.ItemName},
		Booker: refDTO{ID: b.BookerID, Name: b.BookerName},
	}
}

func toBookingDTOs(bookings []*models.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}
