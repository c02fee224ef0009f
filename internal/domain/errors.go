package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error a service returns either wraps one of these or is
// an infrastructure failure that callers treat as fatal.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func newKind(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Lookup failures. Authorization failures on bookings are reported as not
// found so that outsiders cannot discover booking ids.
var (
	ErrUserNotFound          = newKind(ErrNotFound, "user not found")
	ErrItemNotFound          = newKind(ErrNotFound, "item not found")
	ErrBookingNotFound       = newKind(ErrNotFound, "booking not found")
	ErrRequestNotFound       = newKind(ErrNotFound, "item request not found")
	ErrSelfBooking           = newKind(ErrNotFound, "owner cannot book own item")
	ErrNotItemOwner          = newKind(ErrNotFound, "only the item owner can confirm a booking")
	ErrNotBookingParticipant = newKind(ErrNotFound, "booking is visible to its booker and item owner only")
)

// Validation failures.
var (
	ErrItemUnavailable    = newKind(ErrInvalidRequest, "item is not available for booking")
	ErrEndBeforeStart     = newKind(ErrInvalidRequest, "booking end must be after start")
	ErrStartInPast        = newKind(ErrInvalidRequest, "booking start is in the past")
	ErrEndInPast          = newKind(ErrInvalidRequest, "booking end is in the past")
	ErrSlotTaken          = newKind(ErrInvalidRequest, "time slot is already booked")
	ErrNotWaiting         = newKind(ErrInvalidRequest, "booking is not in WAITING status")
	ErrInvalidPage        = newKind(ErrInvalidRequest, "from must be >= 0 and size must be > 0")
	ErrNoCompletedBooking = newKind(ErrInvalidRequest, "user has not used this item")
	ErrEmptyComment       = newKind(ErrInvalidRequest, "comment text is required")
	ErrInvalidEmail       = newKind(ErrInvalidRequest, "email is invalid")
)

var (
	ErrEmailTaken    = newKind(ErrConflict, "email already in use")
	ErrItemForbidden = newKind(ErrForbidden, "only the owner can edit an item")
)

// ErrConcurrentModification is returned by stores when a versioned write lost a race.
var ErrConcurrentModification = errors.New("concurrent modification")

// UnknownState reports a booking state token the API does not recognise.
func UnknownState(token string) error {
	return newKind(ErrInvalidRequest, fmt.Sprintf("Unknown state: %s", token))
}

// Invalid builds a validation failure with a custom message.
func Invalid(format string, args ...any) error {
	return newKind(ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IsKnown reports whether err carries one of the error kinds.
func IsKnown(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrConflict)
}
