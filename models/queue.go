package models

import "fmt"

// TicketRequest is the queue entry handed from the admission path to the
// fulfillment worker. It is immutable once enqueued and identifies exactly
// one ticket and one payment intent. The camelCase field names are the wire
// contract of the ticketQueue list.
type TicketRequest struct {
	UserID    string `json:"userId"`
	EventID   string `json:"eventId"`
	TicketID  string `json:"ticketId"`
	PaymentID string `json:"paymentId"`
}

// Validate rejects entries with missing identifiers so that field-access
// failures surface at dequeue time instead of mid-transaction.
func (r TicketRequest) Validate() error {
	switch {
	case r.UserID == "":
		return fmt.Errorf("missing userId")
	case r.EventID == "":
		return fmt.Errorf("missing eventId")
	case r.TicketID == "":
		return fmt.Errorf("missing ticketId")
	case r.PaymentID == "":
		return fmt.Errorf("missing paymentId")
	}
	return nil
}
