package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// Payment tracks a purchase attempt's monetary status. It is created PENDING
// by the admission path and moved to COMPLETED by the fulfillment worker in
// the same transaction that marks the ticket SOLD. The core never sets
// FAILED; that state belongs to the out-of-band payment processes.
type Payment struct {
	ID            string     `json:"payment_id"`
	UserID        string     `json:"user_id"`
	EventID       string     `json:"event_id"`
	Amount        float64    `json:"amount"`
	TransactionID string     `json:"transaction_id"`
	PaymentStatus string     `json:"payment_status"` // PENDING, COMPLETED, FAILED
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

func PaymentFromRecord(r *core.Record) *Payment {
	p := &Payment{
		ID:            r.Id,
		UserID:        r.GetString("user_id"),
		EventID:       r.GetString("event_id"),
		Amount:        r.GetFloat("amount"),
		TransactionID: r.GetString("transaction_id"),
		PaymentStatus: r.GetString("payment_status"),
		CreatedAt:     r.GetDateTime("created").Time(),
	}
	if dt := r.GetDateTime("completed_at"); !dt.IsZero() {
		completed := dt.Time()
		p.CompletedAt = &completed
	}
	return p
}
