package models

const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	// DefaultPageSize is used when a listing request omits size.
	DefaultPageSize = 10

	// EventQueueSize bounds the in-memory outbound event queue.
	EventQueueSize = 1000
)
