package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"github.com/DhavalSuthar-24/bookmytickets/internal/status"
	"github.com/DhavalSuthar-24/bookmytickets/models"
)

type BookingRequest struct {
	EventID         string   `json:"event_id"`
	SelectedTickets []string `json:"selected_tickets"`
	Amount          float64  `json:"amount"`
	TransactionID   string   `json:"transaction_id"`
}

// BookingService is the admission path: it validates the selection, creates
// the PENDING payment and enqueues one ticket request per selected ticket.
// The enqueue happens inside the same transaction, after the payment insert,
// so a queue transport failure rolls the payment back instead of leaving an
// orphaned PENDING record. The availability check here is advisory only; the
// fulfillment worker's in-transaction recheck is the authoritative one.
type BookingService struct {
	app   core.App
	queue *TicketQueue
}

func NewBookingService(app core.App, queue *TicketQueue) *BookingService {
	return &BookingService{app: app, queue: queue}
}

func (s *BookingService) Book(ctx context.Context, userID string, req BookingRequest) (*models.Payment, error) {
	if len(req.SelectedTickets) == 0 {
		return nil, fmt.Errorf("%w: no tickets selected", status.ErrTicketUnavailable)
	}

	var payment *models.Payment

	err := s.app.RunInTransaction(func(tx core.App) error {
		if _, err := tx.FindRecordById("events", req.EventID); err != nil {
			return fmt.Errorf("%w: %s", status.ErrEventNotFound, req.EventID)
		}

		for _, ticketID := range req.SelectedTickets {
			ticket, err := tx.FindRecordById("tickets", ticketID)
			if err != nil ||
				ticket.GetString("event_id") != req.EventID ||
				ticket.GetString("status") != models.TicketStatusUnsold {
				return fmt.Errorf("%w: %s", status.ErrTicketUnavailable, ticketID)
			}
		}

		collection, err := tx.FindCollectionByNameOrId("payments")
		if err != nil {
			return err
		}

		amount := decimal.NewFromFloat(req.Amount).Round(2)

		record := core.NewRecord(collection)
		record.Set("user_id", userID)
		record.Set("event_id", req.EventID)
		record.Set("amount", amount.InexactFloat64())
		record.Set("transaction_id", req.TransactionID)
		record.Set("payment_status", models.PaymentStatusPending)
		if err := tx.Save(record); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		for _, ticketID := range req.SelectedTickets {
			ticketRequest := models.TicketRequest{
				UserID:    userID,
				EventID:   req.EventID,
				TicketID:  ticketID,
				PaymentID: record.Id,
			}
			if err := s.queue.Enqueue(ctx, ticketRequest); err != nil {
				// Aborts the transaction: the PENDING payment is rolled
				// back rather than orphaned without a fulfillment entry.
				return err
			}
		}

		payment = models.PaymentFromRecord(record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("booking admitted",
		"user_id", userID,
		"event_id", req.EventID,
		"payment_id", payment.ID,
		"tickets", len(req.SelectedTickets),
	)
	return payment, nil
}
