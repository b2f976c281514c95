package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DhavalSuthar-24/bookmytickets/internal/status"
	"github.com/DhavalSuthar-24/bookmytickets/models"
)

type stubCredentials struct {
	issued int
	fail   bool
}

func (s *stubCredentials) Issue(userID, eventID, ticketID string) (string, error) {
	if s.fail {
		return "", errors.New("disk full")
	}
	s.issued++
	return fmt.Sprintf("/qr-codes/%s-%d.png", ticketID, s.issued), nil
}

type recordingNotifier struct {
	tickets []*models.Ticket
}

func (n *recordingNotifier) TicketBooked(_ context.Context, ticket *models.Ticket) {
	n.tickets = append(n.tickets, ticket)
}

type fulfillmentFixture struct {
	app         core.App
	service     *FulfillmentService
	queueMock   redismock.ClientMock
	credentials *stubCredentials
	notifier    *recordingNotifier
}

func setupFulfillment(t *testing.T) *fulfillmentFixture {
	t.Helper()

	app := setupTestApp(t)
	db, mock := redismock.NewClientMock()
	credentials := &stubCredentials{}
	notifier := &recordingNotifier{}

	service := NewFulfillmentService(app, NewTicketQueue(db), credentials, notifier, time.Millisecond)

	return &fulfillmentFixture{
		app:         app,
		service:     service,
		queueMock:   mock,
		credentials: credentials,
		notifier:    notifier,
	}
}

func TestFulfillmentService_Fulfill_Success(t *testing.T) {
	fx := setupFulfillment(t)

	user := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	payment := createTestPayment(t, fx.app, user.Id, event.Id)

	sold, err := fx.service.Fulfill(context.Background(), models.TicketRequest{
		UserID:    user.Id,
		EventID:   event.Id,
		TicketID:  ticket.Id,
		PaymentID: payment.Id,
	})

	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusSold, sold.Status)
	assert.Equal(t, user.Id, sold.UserID)
	assert.NotEmpty(t, sold.QRCode)

	storedTicket, err := fx.app.FindRecordById("tickets", ticket.Id)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusSold, storedTicket.GetString("status"))
	assert.Equal(t, user.Id, storedTicket.GetString("user_id"))
	assert.Equal(t, payment.Id, storedTicket.GetString("payment_id"))
	assert.NotEmpty(t, storedTicket.GetString("qr_code"))

	storedPayment, err := fx.app.FindRecordById("payments", payment.Id)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, storedPayment.GetString("payment_status"))
	assert.False(t, storedPayment.GetDateTime("completed_at").IsZero())
}

func TestFulfillmentService_Fulfill_EventNotFound(t *testing.T) {
	fx := setupFulfillment(t)

	user := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	payment := createTestPayment(t, fx.app, user.Id, event.Id)

	_, err := fx.service.Fulfill(context.Background(), models.TicketRequest{
		UserID:    user.Id,
		EventID:   "missing",
		TicketID:  ticket.Id,
		PaymentID: payment.Id,
	})

	assert.ErrorIs(t, err, status.ErrEventNotFound)

	storedTicket, _ := fx.app.FindRecordById("tickets", ticket.Id)
	assert.Equal(t, models.TicketStatusUnsold, storedTicket.GetString("status"))
}

func TestFulfillmentService_Fulfill_TicketAlreadySold(t *testing.T) {
	fx := setupFulfillment(t)

	owner := createTestUser(t, fx.app)
	buyer := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	payment := createTestPayment(t, fx.app, buyer.Id, event.Id)

	ticket.Set("status", models.TicketStatusSold)
	ticket.Set("user_id", owner.Id)
	ticket.Set("qr_code", "/qr-codes/owner.png")
	require.NoError(t, fx.app.Save(ticket))

	_, err := fx.service.Fulfill(context.Background(), models.TicketRequest{
		UserID:    buyer.Id,
		EventID:   event.Id,
		TicketID:  ticket.Id,
		PaymentID: payment.Id,
	})

	assert.ErrorIs(t, err, status.ErrTicketUnavailable)

	// The sold ticket never reverts and keeps its original owner.
	storedTicket, _ := fx.app.FindRecordById("tickets", ticket.Id)
	assert.Equal(t, models.TicketStatusSold, storedTicket.GetString("status"))
	assert.Equal(t, owner.Id, storedTicket.GetString("user_id"))

	// The buyer's payment must stay PENDING, never COMPLETED.
	storedPayment, _ := fx.app.FindRecordById("payments", payment.Id)
	assert.Equal(t, models.PaymentStatusPending, storedPayment.GetString("payment_status"))
}

func TestFulfillmentService_Fulfill_InvalidPayment(t *testing.T) {
	fx := setupFulfillment(t)

	user := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	payment := createTestPayment(t, fx.app, user.Id, event.Id)

	payment.Set("payment_status", models.PaymentStatusCompleted)
	require.NoError(t, fx.app.Save(payment))

	_, err := fx.service.Fulfill(context.Background(), models.TicketRequest{
		UserID:    user.Id,
		EventID:   event.Id,
		TicketID:  ticket.Id,
		PaymentID: payment.Id,
	})

	assert.ErrorIs(t, err, status.ErrInvalidPayment)

	storedTicket, _ := fx.app.FindRecordById("tickets", ticket.Id)
	assert.Equal(t, models.TicketStatusUnsold, storedTicket.GetString("status"))
}

func TestFulfillmentService_Fulfill_CredentialFailureRollsBack(t *testing.T) {
	fx := setupFulfillment(t)
	fx.credentials.fail = true

	user := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	payment := createTestPayment(t, fx.app, user.Id, event.Id)

	_, err := fx.service.Fulfill(context.Background(), models.TicketRequest{
		UserID:    user.Id,
		EventID:   event.Id,
		TicketID:  ticket.Id,
		PaymentID: payment.Id,
	})

	assert.ErrorIs(t, err, status.ErrCredentialPersistence)

	// No partial effect: ticket and payment are untouched.
	storedTicket, _ := fx.app.FindRecordById("tickets", ticket.Id)
	assert.Equal(t, models.TicketStatusUnsold, storedTicket.GetString("status"))
	assert.Empty(t, storedTicket.GetString("qr_code"))

	storedPayment, _ := fx.app.FindRecordById("payments", payment.Id)
	assert.Equal(t, models.PaymentStatusPending, storedPayment.GetString("payment_status"))
}

func TestFulfillmentService_Fulfill_RaceExactlyOneWinner(t *testing.T) {
	fx := setupFulfillment(t)

	// Two admissions both observed the same ticket as UNSOLD and enqueued
	// competing requests with their own payments.
	first := createTestUser(t, fx.app)
	second := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	firstPayment := createTestPayment(t, fx.app, first.Id, event.Id)
	secondPayment := createTestPayment(t, fx.app, second.Id, event.Id)

	_, err := fx.service.Fulfill(context.Background(), models.TicketRequest{
		UserID: first.Id, EventID: event.Id, TicketID: ticket.Id, PaymentID: firstPayment.Id,
	})
	require.NoError(t, err)

	_, err = fx.service.Fulfill(context.Background(), models.TicketRequest{
		UserID: second.Id, EventID: event.Id, TicketID: ticket.Id, PaymentID: secondPayment.Id,
	})
	assert.ErrorIs(t, err, status.ErrTicketUnavailable)

	storedTicket, _ := fx.app.FindRecordById("tickets", ticket.Id)
	assert.Equal(t, models.TicketStatusSold, storedTicket.GetString("status"))
	assert.Equal(t, first.Id, storedTicket.GetString("user_id"))

	winner, _ := fx.app.FindRecordById("payments", firstPayment.Id)
	assert.Equal(t, models.PaymentStatusCompleted, winner.GetString("payment_status"))

	loser, _ := fx.app.FindRecordById("payments", secondPayment.Id)
	assert.Equal(t, models.PaymentStatusPending, loser.GetString("payment_status"))
}

func TestFulfillmentService_ProcessNext_EndToEnd(t *testing.T) {
	fx := setupFulfillment(t)
	defer fx.queueMock.ClearExpect()

	user := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	payment := createTestPayment(t, fx.app, user.Id, event.Id)

	request := models.TicketRequest{
		UserID:    user.Id,
		EventID:   event.Id,
		TicketID:  ticket.Id,
		PaymentID: payment.Id,
	}
	data, _ := json.Marshal(request)
	fx.queueMock.ExpectLPop("ticketQueue").SetVal(string(data))

	err := fx.service.ProcessNext(context.Background())

	require.NoError(t, err)
	require.Len(t, fx.notifier.tickets, 1, "notification must be published exactly once")
	published := fx.notifier.tickets[0]
	assert.Equal(t, ticket.Id, published.ID)
	assert.Equal(t, models.TicketStatusSold, published.Status)
	assert.Equal(t, user.Id, published.UserID)
	assert.NotEmpty(t, published.QRCode)
	assert.NoError(t, fx.queueMock.ExpectationsWereMet())
}

func TestFulfillmentService_ProcessNext_EmptyQueueLeavesStateUntouched(t *testing.T) {
	fx := setupFulfillment(t)
	defer fx.queueMock.ClearExpect()

	fx.queueMock.ExpectLPop("ticketQueue").RedisNil()

	err := fx.service.ProcessNext(context.Background())

	assert.ErrorIs(t, err, status.ErrQueueEmpty)
	assert.Empty(t, fx.notifier.tickets)
	assert.NoError(t, fx.queueMock.ExpectationsWereMet())
}

func TestFulfillmentService_ProcessNext_SoldTicketRequestIsDropped(t *testing.T) {
	fx := setupFulfillment(t)
	defer fx.queueMock.ClearExpect()

	owner := createTestUser(t, fx.app)
	buyer := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	ticket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	payment := createTestPayment(t, fx.app, buyer.Id, event.Id)

	ticket.Set("status", models.TicketStatusSold)
	ticket.Set("user_id", owner.Id)
	ticket.Set("qr_code", "/qr-codes/owner.png")
	require.NoError(t, fx.app.Save(ticket))

	request := models.TicketRequest{
		UserID:    buyer.Id,
		EventID:   event.Id,
		TicketID:  ticket.Id,
		PaymentID: payment.Id,
	}
	data, _ := json.Marshal(request)
	fx.queueMock.ExpectLPop("ticketQueue").SetVal(string(data))

	err := fx.service.ProcessNext(context.Background())

	assert.ErrorIs(t, err, status.ErrTicketUnavailable)

	// Dropped, not re-enqueued, and no notification went out.
	assert.Empty(t, fx.notifier.tickets)
	assert.NoError(t, fx.queueMock.ExpectationsWereMet())

	storedPayment, _ := fx.app.FindRecordById("payments", payment.Id)
	assert.Equal(t, models.PaymentStatusPending, storedPayment.GetString("payment_status"))
}

func TestFulfillmentService_ProcessNext_FIFOOrder(t *testing.T) {
	fx := setupFulfillment(t)
	defer fx.queueMock.ClearExpect()

	user := createTestUser(t, fx.app)
	event := createTestEvent(t, fx.app, 5)
	ticketType := createTestTicketType(t, fx.app, event.Id)
	firstTicket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-1")
	secondTicket := createTestTicket(t, fx.app, event.Id, ticketType.Id, "Seat-2")
	payment := createTestPayment(t, fx.app, user.Id, event.Id)
	secondPayment := createTestPayment(t, fx.app, user.Id, event.Id)

	firstData, _ := json.Marshal(models.TicketRequest{
		UserID: user.Id, EventID: event.Id, TicketID: firstTicket.Id, PaymentID: payment.Id,
	})
	secondData, _ := json.Marshal(models.TicketRequest{
		UserID: user.Id, EventID: event.Id, TicketID: secondTicket.Id, PaymentID: secondPayment.Id,
	})
	fx.queueMock.ExpectLPop("ticketQueue").SetVal(string(firstData))
	fx.queueMock.ExpectLPop("ticketQueue").SetVal(string(secondData))

	require.NoError(t, fx.service.ProcessNext(context.Background()))
	require.NoError(t, fx.service.ProcessNext(context.Background()))

	require.Len(t, fx.notifier.tickets, 2)
	assert.Equal(t, firstTicket.Id, fx.notifier.tickets[0].ID)
	assert.Equal(t, secondTicket.Id, fx.notifier.tickets[1].ID)
	assert.NoError(t, fx.queueMock.ExpectationsWereMet())
}

func TestFulfillmentService_CredentialRefsDistinctAcrossSales(t *testing.T) {
	app := setupTestApp(t)
	db, _ := redismock.NewClientMock()
	notifier := &recordingNotifier{}

	// Real credential generator: references must be pairwise distinct.
	service := NewFulfillmentService(app, NewTicketQueue(db), NewCredentialService(t.TempDir()), notifier, time.Millisecond)

	user := createTestUser(t, app)
	event := createTestEvent(t, app, 10)
	ticketType := createTestTicketType(t, app, event.Id)

	refs := make(map[string]struct{})
	for i := 0; i < 5; i++ {
		ticket := createTestTicket(t, app, event.Id, ticketType.Id, fmt.Sprintf("Seat-%d", i+1))
		payment := createTestPayment(t, app, user.Id, event.Id)

		sold, err := service.Fulfill(context.Background(), models.TicketRequest{
			UserID: user.Id, EventID: event.Id, TicketID: ticket.Id, PaymentID: payment.Id,
		})
		require.NoError(t, err)
		refs[sold.QRCode] = struct{}{}
	}

	assert.Len(t, refs, 5)
}

func TestFulfillmentService_Run_StopsOnCancel(t *testing.T) {
	fx := setupFulfillment(t)
	defer fx.queueMock.ClearExpect()

	fx.queueMock.ExpectLPop("ticketQueue").RedisNil()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		fx.service.Run(ctx)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
