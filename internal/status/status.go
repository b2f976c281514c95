package status

import "errors"

var (
	// Queue transport errors.
	ErrQueueEmpty       = errors.New("queue: no pending ticket requests")
	ErrMalformedRequest = errors.New("queue: malformed ticket request entry")
	ErrTransportFailure = errors.New("queue: transport failure")

	// Reservation transition errors. Any of these aborts the whole
	// transaction; the dequeued request is dropped, not re-enqueued.
	ErrEventNotFound         = errors.New("fulfillment: event not found")
	ErrTicketUnavailable     = errors.New("fulfillment: ticket not available")
	ErrInvalidPayment        = errors.New("fulfillment: invalid payment")
	ErrCredentialPersistence = errors.New("credential: failed to persist artifact")
)
