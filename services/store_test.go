package services

import (
	"fmt"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/require"

	_ "github.com/DhavalSuthar-24/bookmytickets/migrations"
	"github.com/DhavalSuthar-24/bookmytickets/models"
)

// setupTestApp bootstraps a throwaway store with the reservation schema.
// Importing the migrations package registers the schema migrations, which
// tests.NewTestApp applies automatically.
func setupTestApp(t *testing.T) *tests.TestApp {
	t.Helper()

	app, err := tests.NewTestApp(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	for _, name := range []string{"users", "events", "ticket_types", "payments", "tickets"} {
		_, err := app.FindCollectionByNameOrId(name)
		require.NoError(t, err)
	}

	return app
}

var testUserSeq int

func createTestUser(t *testing.T, app core.App) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("users")
	require.NoError(t, err)

	testUserSeq++
	user := core.NewRecord(collection)
	user.SetEmail(fmt.Sprintf("buyer%d@example.com", testUserSeq))
	user.SetPassword("1234567890")
	require.NoError(t, app.Save(user))

	return user
}

func createTestEvent(t *testing.T, app core.App, capacity int) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("events")
	require.NoError(t, err)

	event := core.NewRecord(collection)
	event.Set("name", "Test Concert")
	event.Set("venue", "Test Arena")
	event.Set("total_capacity", capacity)
	event.Set("status", "published")
	require.NoError(t, app.Save(event))

	return event
}

func createTestTicketType(t *testing.T, app core.App, eventID string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("ticket_types")
	require.NoError(t, err)

	ticketType := core.NewRecord(collection)
	ticketType.Set("name", "General")
	ticketType.Set("price", 50.0)
	ticketType.Set("event_id", eventID)
	require.NoError(t, app.Save(ticketType))

	return ticketType
}

func createTestTicket(t *testing.T, app core.App, eventID, ticketTypeID, seat string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("tickets")
	require.NoError(t, err)

	ticket := core.NewRecord(collection)
	ticket.Set("event_id", eventID)
	ticket.Set("ticket_type_id", ticketTypeID)
	ticket.Set("status", models.TicketStatusUnsold)
	ticket.Set("seat_number", seat)
	require.NoError(t, app.Save(ticket))

	return ticket
}

func createTestPayment(t *testing.T, app core.App, userID, eventID string) *core.Record {
	t.Helper()

	collection, err := app.FindCollectionByNameOrId("payments")
	require.NoError(t, err)

	payment := core.NewRecord(collection)
	payment.Set("user_id", userID)
	payment.Set("event_id", eventID)
	payment.Set("amount", 50.0)
	payment.Set("transaction_id", "txn-test")
	payment.Set("payment_status", models.PaymentStatusPending)
	require.NoError(t, app.Save(payment))

	return payment
}
