package handlers

import (
	"fmt"
	"net/http"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"github.com/DhavalSuthar-24/bookmytickets/models"
)

type TicketTypeHandler struct {
	app core.App
}

func NewTicketTypeHandler(app core.App) *TicketTypeHandler {
	return &TicketTypeHandler{app: app}
}

// CreateTicketType creates a ticket type and pre-generates one UNSOLD ticket
// per seat of the event, all inside one transaction.
func (h *TicketTypeHandler) CreateTicketType(e *core.RequestEvent) error {
	var req struct {
		Name    string  `json:"name"`
		Price   float64 `json:"price"`
		EventID string  `json:"event_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Name == "" || req.Price <= 0 || req.EventID == "" {
		return apis.NewBadRequestError("All fields (name, price, event_id) are required", nil)
	}

	var created *models.TicketType

	err := h.app.RunInTransaction(func(tx core.App) error {
		event, err := tx.FindRecordById("events", req.EventID)
		if err != nil {
			return fmt.Errorf("event not found: %w", err)
		}

		typesCollection, err := tx.FindCollectionByNameOrId("ticket_types")
		if err != nil {
			return err
		}
		ticketType := core.NewRecord(typesCollection)
		ticketType.Set("name", req.Name)
		ticketType.Set("price", req.Price)
		ticketType.Set("event_id", event.Id)
		if err := tx.Save(ticketType); err != nil {
			return fmt.Errorf("create ticket type: %w", err)
		}

		ticketsCollection, err := tx.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		for i := 1; i <= event.GetInt("total_capacity"); i++ {
			ticket := core.NewRecord(ticketsCollection)
			ticket.Set("event_id", event.Id)
			ticket.Set("ticket_type_id", ticketType.Id)
			ticket.Set("status", models.TicketStatusUnsold)
			ticket.Set("seat_number", fmt.Sprintf("Seat-%d", i))
			if err := tx.Save(ticket); err != nil {
				return fmt.Errorf("generate ticket %d: %w", i, err)
			}
		}

		created = models.TicketTypeFromRecord(ticketType)
		return nil
	})
	if err != nil {
		return apis.NewBadRequestError("Error creating ticket type and tickets", err)
	}

	return e.JSON(http.StatusCreated, map[string]any{
		"message":     "Ticket type created successfully and tickets generated in UNSOLD status with seat numbers",
		"ticket_type": created,
	})
}

// GetTicketTypesByEvent lists the ticket types of an event.
func (h *TicketTypeHandler) GetTicketTypesByEvent(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	if _, err := h.app.FindRecordById("events", eventID); err != nil {
		return apis.NewNotFoundError("Event not found", err)
	}

	records, err := h.app.FindRecordsByFilter(
		"ticket_types",
		"event_id = {:eventId}",
		"-created",
		100,
		0,
		dbx.Params{"eventId": eventID},
	)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Error fetching ticket types", err)
	}

	ticketTypes := make([]*models.TicketType, 0, len(records))
	for _, record := range records {
		ticketTypes = append(ticketTypes, models.TicketTypeFromRecord(record))
	}

	return e.JSON(http.StatusOK, ticketTypes)
}

// GetTicketTypeDetails returns a single ticket type.
func (h *TicketTypeHandler) GetTicketTypeDetails(e *core.RequestEvent) error {
	ticketType, err := h.app.FindRecordById("ticket_types", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Ticket type not found", err)
	}

	return e.JSON(http.StatusOK, models.TicketTypeFromRecord(ticketType))
}

// UpdateTicketType changes a ticket type's name and price.
func (h *TicketTypeHandler) UpdateTicketType(e *core.RequestEvent) error {
	var req struct {
		Name  string  `json:"name"`
		Price float64 `json:"price"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Name == "" || req.Price <= 0 {
		return apis.NewBadRequestError("Name and price are required", nil)
	}

	ticketType, err := h.app.FindRecordById("ticket_types", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Ticket type not found", err)
	}

	ticketType.Set("name", req.Name)
	ticketType.Set("price", req.Price)
	if err := h.app.Save(ticketType); err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Error updating ticket type", err)
	}

	return e.JSON(http.StatusOK, models.TicketTypeFromRecord(ticketType))
}

// DeleteTicketType removes a ticket type and its still-unsold tickets. It is
// refused while any ticket of the type has been sold or used.
func (h *TicketTypeHandler) DeleteTicketType(e *core.RequestEvent) error {
	ticketType, err := h.app.FindRecordById("ticket_types", e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Ticket type not found", err)
	}

	soldCount, err := h.app.CountRecords(
		"tickets",
		dbx.HashExp{"ticket_type_id": ticketType.Id},
		dbx.NewExp("status != {:status}", dbx.Params{"status": models.TicketStatusUnsold}),
	)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Error deleting ticket type", err)
	}
	if soldCount > 0 {
		return apis.NewBadRequestError("Cannot delete ticket type, tickets have been sold", nil)
	}

	err = h.app.RunInTransaction(func(tx core.App) error {
		tickets, err := tx.FindAllRecords("tickets", dbx.HashExp{"ticket_type_id": ticketType.Id})
		if err != nil {
			return err
		}
		for _, ticket := range tickets {
			if err := tx.Delete(ticket); err != nil {
				return err
			}
		}
		return tx.Delete(ticketType)
	})
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Error deleting ticket type", err)
	}

	return e.NoContent(http.StatusNoContent)
}
