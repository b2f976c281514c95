package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

const (
	TicketStatusUnsold = "UNSOLD"
	TicketStatusSold   = "SOLD"
	TicketStatusUsed   = "USED"
)

// Ticket is a single admission unit. It transitions UNSOLD -> SOLD exactly
// once (fulfillment worker, inside the reservation transaction) and
// SOLD -> USED at check-in. A SOLD ticket always carries user_id, payment_id
// and a credential reference.
type Ticket struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	TicketTypeID string    `json:"ticket_type_id"`
	UserID       string    `json:"user_id,omitempty"`
	PaymentID    string    `json:"payment_id,omitempty"`
	SeatNumber   string    `json:"seat_number"`
	Status       string    `json:"status"` // UNSOLD, SOLD, USED
	QRCode       string    `json:"qr_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func TicketFromRecord(r *core.Record) *Ticket {
	return &Ticket{
		ID:           r.Id,
		EventID:      r.GetString("event_id"),
		TicketTypeID: r.GetString("ticket_type_id"),
		UserID:       r.GetString("user_id"),
		PaymentID:    r.GetString("payment_id"),
		SeatNumber:   r.GetString("seat_number"),
		Status:       r.GetString("status"),
		QRCode:       r.GetString("qr_code"),
		CreatedAt:    r.GetDateTime("created").Time(),
	}
}

type TicketType struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	EventID string  `json:"event_id"`
}

func TicketTypeFromRecord(r *core.Record) *TicketType {
	return &TicketType{
		ID:      r.Id,
		Name:    r.GetString("name"),
		Price:   r.GetFloat("price"),
		EventID: r.GetString("event_id"),
	}
}
