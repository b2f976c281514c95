package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/router"

	"github.com/DhavalSuthar-24/bookmytickets/internal/status"
	"github.com/DhavalSuthar-24/bookmytickets/models"
	"github.com/DhavalSuthar-24/bookmytickets/services"
)

type TicketHandler struct {
	app     core.App
	booking *services.BookingService
}

func NewTicketHandler(app core.App, booking *services.BookingService) *TicketHandler {
	return &TicketHandler{
		app:     app,
		booking: booking,
	}
}

// BookTickets admits a booking request: the selection is validated, a PENDING
// payment is created and one queue entry per ticket is enqueued. The actual
// sale happens asynchronously in the fulfillment worker; the client waits for
// the ticketBooked push.
func (h *TicketHandler) BookTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req services.BookingRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.EventID == "" || len(req.SelectedTickets) == 0 {
		return apis.NewBadRequestError("event_id and selected_tickets are required", nil)
	}

	payment, err := h.booking.Book(e.Request.Context(), e.Auth.Id, req)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrEventNotFound):
			return apis.NewNotFoundError("Event not found", err)
		case errors.Is(err, status.ErrTicketUnavailable):
			return apis.NewBadRequestError("Some selected tickets are not available or invalid.", err)
		default:
			slog.Error("booking failed", "user_id", e.Auth.Id, "error", err)
			return apis.NewApiError(http.StatusInternalServerError, "Error booking ticket", err)
		}
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": "Ticket booking request received. Please wait for confirmation.",
		"payment": payment,
	})
}

// ScanTicket redeems a sold ticket at check-in (SOLD -> USED).
func (h *TicketHandler) ScanTicket(e *core.RequestEvent) error {
	var req struct {
		QRCode string `json:"qr_code"`
	}
	if err := e.BindBody(&req); err != nil || req.QRCode == "" {
		return apis.NewBadRequestError("qr_code is required", err)
	}

	var redeemed *models.Ticket

	// Lookup and status flip share one transaction so two concurrent scans
	// of the same credential cannot both redeem it.
	err := h.app.RunInTransaction(func(tx core.App) error {
		ticket, err := tx.FindFirstRecordByFilter(
			"tickets",
			"qr_code = {:qrCode}",
			dbx.Params{"qrCode": req.QRCode},
		)
		if err != nil {
			return apis.NewNotFoundError("Ticket not found", err)
		}

		switch ticket.GetString("status") {
		case models.TicketStatusUsed:
			return apis.NewBadRequestError("Ticket has already been used", nil)
		case models.TicketStatusSold:
			// fall through to redemption
		default:
			return apis.NewBadRequestError("Ticket has not been sold", nil)
		}

		ticket.Set("status", models.TicketStatusUsed)
		if err := tx.Save(ticket); err != nil {
			return err
		}

		redeemed = models.TicketFromRecord(ticket)
		return nil
	})
	if err != nil {
		var apiErr *router.ApiError
		if errors.As(err, &apiErr) {
			return err
		}
		return apis.NewApiError(http.StatusInternalServerError, "Error scanning ticket", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"message": "Ticket scanned successfully",
		"ticket":  redeemed,
	})
}

// CancelTicket deletes a not-yet-used ticket owned by the caller.
func (h *TicketHandler) CancelTicket(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticket, err := h.app.FindRecordById("tickets", e.Request.PathValue("id"))
	if err != nil || ticket.GetString("user_id") != e.Auth.Id {
		return apis.NewNotFoundError("Ticket not found or not owned by the user", err)
	}

	if ticket.GetString("status") == models.TicketStatusUsed {
		return apis.NewBadRequestError("Ticket has already been used and cannot be canceled", nil)
	}

	if err := h.app.Delete(ticket); err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Error canceling ticket", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"message": "Ticket canceled successfully"})
}

// GetTicketDetails returns one ticket with its event and ticket type.
func (h *TicketHandler) GetTicketDetails(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	ticket, err := h.app.FindRecordById("tickets", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Ticket not found", err)
	}

	result := map[string]any{"ticket": models.TicketFromRecord(ticket)}

	if event, err := h.app.FindRecordById("events", ticket.GetString("event_id")); err == nil {
		result["event"] = models.EventFromRecord(event)
	}
	if ticketType, err := h.app.FindRecordById("ticket_types", ticket.GetString("ticket_type_id")); err == nil {
		result["ticket_type"] = models.TicketTypeFromRecord(ticketType)
	}

	return e.JSON(http.StatusOK, result)
}

// GetUserTickets lists the caller's tickets, newest first.
func (h *TicketHandler) GetUserTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	records, err := h.app.FindRecordsByFilter(
		"tickets",
		"user_id = {:userId}",
		"-created",
		100,
		0,
		dbx.Params{"userId": e.Auth.Id},
	)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Error fetching user tickets", err)
	}

	tickets := make([]*models.Ticket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, models.TicketFromRecord(record))
	}

	return e.JSON(http.StatusOK, tickets)
}
