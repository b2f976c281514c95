package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"github.com/DhavalSuthar-24/bookmytickets/internal/status"
	"github.com/DhavalSuthar-24/bookmytickets/models"
	"github.com/DhavalSuthar-24/bookmytickets/monitoring"
)

// CredentialGenerator mints the scannable credential for a sale. A failure
// aborts the reservation transaction so a ticket is never SOLD without a
// retrievable credential.
type CredentialGenerator interface {
	Issue(userID, eventID, ticketID string) (string, error)
}

// TicketNotifier is invoked once per committed sale, strictly after commit.
type TicketNotifier interface {
	TicketBooked(ctx context.Context, ticket *models.Ticket)
}

// FulfillmentService drains the ticket queue one request at a time and drives
// each through the reservation transition. A single instance is spawned at
// startup; it is the only writer of the UNSOLD -> SOLD transition.
type FulfillmentService struct {
	app         core.App
	queue       *TicketQueue
	credentials CredentialGenerator
	notifier    TicketNotifier
	idle        time.Duration
}

func NewFulfillmentService(
	app core.App,
	queue *TicketQueue,
	credentials CredentialGenerator,
	notifier TicketNotifier,
	idle time.Duration,
) *FulfillmentService {
	return &FulfillmentService{
		app:         app,
		queue:       queue,
		credentials: credentials,
		notifier:    notifier,
		idle:        idle,
	}
}

// Run is the worker control loop. It processes requests back to back while
// the queue has entries and idles for the configured interval when it is
// empty or after a failed request. No failure is fatal to the loop.
func (s *FulfillmentService) Run(ctx context.Context) {
	slog.Info("fulfillment worker started", "idle_interval", s.idle)

	for {
		select {
		case <-ctx.Done():
			slog.Info("fulfillment worker stopped")
			return
		default:
		}

		err := s.ProcessNext(ctx)
		if err == nil {
			continue
		}
		if !errors.Is(err, status.ErrQueueEmpty) {
			slog.Error("ticket request dropped", "error", err)
		}

		select {
		case <-ctx.Done():
			slog.Info("fulfillment worker stopped")
			return
		case <-time.After(s.idle):
		}
	}
}

// ProcessNext dequeues and fulfills a single request. It returns
// status.ErrQueueEmpty when there is nothing to do. Any other error means the
// dequeued request was dropped: nothing is re-enqueued and no state changed.
func (s *FulfillmentService) ProcessNext(ctx context.Context) (err error) {
	req, err := s.queue.Dequeue(ctx)
	if err != nil {
		if !errors.Is(err, status.ErrQueueEmpty) {
			monitoring.TrackFulfillment(outcomeLabel(err))
		}
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			monitoring.TrackFulfillment("panic")
			err = fmt.Errorf("fulfillment panic for ticket %s: %v", req.TicketID, r)
		}
	}()

	slog.Info("processing ticket request",
		"user_id", req.UserID,
		"ticket_id", req.TicketID,
		"payment_id", req.PaymentID,
	)

	start := time.Now()
	ticket, err := s.Fulfill(ctx, *req)
	if err != nil {
		monitoring.TrackFulfillment(outcomeLabel(err))
		return err
	}

	monitoring.TrackFulfillment("sold")
	monitoring.ObserveFulfillment(time.Since(start))

	// Publication order relative to the commit is strictly "after": a
	// subscriber can never observe a sale that is not durably committed.
	s.notifier.TicketBooked(ctx, ticket)

	return nil
}

// Fulfill executes the reservation transition for one request inside a
// single transaction. Every precondition failure aborts the whole
// transaction, leaving ticket and payment untouched.
func (s *FulfillmentService) Fulfill(ctx context.Context, req models.TicketRequest) (*models.Ticket, error) {
	var sold *models.Ticket

	txErr := s.app.RunInTransaction(func(tx core.App) error {
		if _, err := tx.FindRecordById("events", req.EventID); err != nil {
			return fmt.Errorf("%w: %s", status.ErrEventNotFound, req.EventID)
		}

		ticket, err := tx.FindRecordById("tickets", req.TicketID)
		if err != nil || ticket.GetString("status") != models.TicketStatusUnsold {
			return fmt.Errorf("%w: %s", status.ErrTicketUnavailable, req.TicketID)
		}

		payment, err := tx.FindRecordById("payments", req.PaymentID)
		if err != nil || payment.GetString("payment_status") != models.PaymentStatusPending {
			return fmt.Errorf("%w: %s", status.ErrInvalidPayment, req.PaymentID)
		}

		credentialRef, err := s.credentials.Issue(req.UserID, req.EventID, req.TicketID)
		if err != nil {
			return fmt.Errorf("%w: %v", status.ErrCredentialPersistence, err)
		}

		ticket.Set("status", models.TicketStatusSold)
		ticket.Set("user_id", req.UserID)
		ticket.Set("payment_id", req.PaymentID)
		ticket.Set("qr_code", credentialRef)
		if err := tx.Save(ticket); err != nil {
			return fmt.Errorf("update ticket: %w", err)
		}

		payment.Set("payment_status", models.PaymentStatusCompleted)
		payment.Set("completed_at", time.Now())
		if err := tx.Save(payment); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}

		sold = models.TicketFromRecord(ticket)
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	slog.Info("ticket sold",
		"ticket_id", sold.ID,
		"user_id", sold.UserID,
		"credential", sold.QRCode,
	)
	return sold, nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, status.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, status.ErrTicketUnavailable):
		return "ticket_unavailable"
	case errors.Is(err, status.ErrInvalidPayment):
		return "invalid_payment"
	case errors.Is(err, status.ErrCredentialPersistence):
		return "credential_failure"
	case errors.Is(err, status.ErrMalformedRequest):
		return "malformed_request"
	default:
		return "error"
	}
}
