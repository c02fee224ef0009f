package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBookingState(t *testing.T) {
	cases := map[string]BookingState{
		"":         StateAll,
		"all":      StateAll,
		"CURRENT":  StateCurrent,
		" past ":   StatePast,
		"Future":   StateFuture,
		"WAITING":  StateWaiting,
		"rejected": StateRejected,
	}
	for raw, want := range cases {
		got, ok := ParseBookingState(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseBookingState("UNSUPPORTED_STATUS")
	assert.False(t, ok)
}

func TestBookingState_Matches(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := &Booking{Start: now.Add(-72 * time.Hour), End: now.Add(-48 * time.Hour), Status: StatusApproved}
	current := &Booking{Start: now.Add(-24 * time.Hour), End: now.Add(24 * time.Hour), Status: StatusRejected}
	future := &Booking{Start: now.Add(48 * time.Hour), End: now.Add(72 * time.Hour), Status: StatusWaiting}

	assert.True(t, StatePast.Matches(past, now))
	assert.False(t, StatePast.Matches(current, now))

	assert.True(t, StateCurrent.Matches(current, now))
	assert.False(t, StateCurrent.Matches(future, now))

	assert.True(t, StateFuture.Matches(future, now))
	assert.False(t, StateFuture.Matches(past, now))

	assert.True(t, StateWaiting.Matches(future, now))
	assert.True(t, StateRejected.Matches(current, now))
	assert.False(t, StateRejected.Matches(past, now))

	for _, b := range []*Booking{past, current, future} {
		assert.True(t, StateAll.Matches(b, now))
	}

	// start == now is neither current nor future.
	edge := &Booking{Start: now, End: now.Add(time.Hour)}
	assert.False(t, StateCurrent.Matches(edge, now))
	assert.False(t, StateFuture.Matches(edge, now))
	assert.False(t, BookingState("UNKNOWN").Matches(edge, now))
}

func TestPage(t *testing.T) {
	assert.Equal(t, 0, Page{From: 0, Size: 2}.Offset())
	assert.Equal(t, 2, Page{From: 2, Size: 2}.Offset())
	assert.Equal(t, 2, Page{From: 3, Size: 2}.Offset())
	assert.Equal(t, 0, Page{From: 5, Size: 10}.Offset())
	assert.Equal(t, 0, Page{From: 5, Size: 0}.Offset())

	lo, hi := Page{From: 2, Size: 2}.Slice(5)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 4, hi)

	lo, hi = Page{From: 4, Size: 2}.Slice(5)
	assert.Equal(t, 4, lo)
	assert.Equal(t, 5, hi)

	lo, hi = Page{From: 10, Size: 2}.Slice(5)
	assert.Equal(t, 5, lo)
	assert.Equal(t, 5, hi)

	lo, hi = Page{From: math.MaxInt, Size: math.MaxInt}.Slice(5)
	assert.Equal(t, 5, lo)
	assert.Equal(t, 5, hi)

	lo, hi = Page{From: 0, Size: math.MaxInt}.Slice(3)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 3, hi)

	lo, hi = Page{From: math.MaxInt - 1, Size: math.MaxInt / 2}.Slice(5)
	assert.Equal(t, 5, lo)
	assert.Equal(t, 5, hi)
}
