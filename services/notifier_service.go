package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"

	"github.com/DhavalSuthar-24/bookmytickets/models"
	"github.com/DhavalSuthar-24/bookmytickets/monitoring"
	"github.com/DhavalSuthar-24/bookmytickets/utils"
)

// bookedChannel is the broadcast topic carrying every committed sale.
const bookedChannel = "ticketBooked"

// NotifierService fans a committed sale out to the ticketBooked broadcast
// topic and, best effort, to the purchasing user's live PubNub channel. It is
// only ever invoked after the reservation transaction has committed; nothing
// here can unwind a sale.
type NotifierService struct {
	Redis   *redis.Client
	PubNub  *pubnub.PubNub
	breaker *utils.CircuitBreaker
}

func NewNotifierService(redisClient *redis.Client, pn *pubnub.PubNub) *NotifierService {
	return &NotifierService{
		Redis:   redisClient,
		PubNub:  pn,
		breaker: utils.NewCircuitBreaker("pubnub-push"),
	}
}

func (s *NotifierService) TicketBooked(ctx context.Context, ticket *models.Ticket) {
	data, err := json.Marshal(ticket)
	if err != nil {
		slog.Error("ticketBooked payload marshal failed", "ticket_id", ticket.ID, "error", err)
		return
	}

	if err := s.Redis.Publish(ctx, bookedChannel, data).Err(); err != nil {
		monitoring.TrackNotificationFailure("broadcast")
		slog.Error("ticketBooked publish failed", "ticket_id", ticket.ID, "error", err)
	}

	s.pushToUser(ctx, ticket)
}

// pushToUser delivers the ticket to the owner's live channel. Absence of a
// connected client is not an error; transport failures are logged only.
func (s *NotifierService) pushToUser(ctx context.Context, ticket *models.Ticket) {
	if s.PubNub == nil || ticket.UserID == "" {
		return
	}

	channel := fmt.Sprintf("user-%s", ticket.UserID)
	err := s.breaker.Do(ctx, func() error {
		_, _, err := s.PubNub.Publish().
			Channel(channel).
			Message(map[string]any{
				"type":   "ticket_booked",
				"ticket": ticket,
			}).
			Execute()
		return err
	})
	if err != nil {
		monitoring.TrackNotificationFailure("push")
		slog.Error("ticket push delivery failed",
			"user_id", ticket.UserID,
			"ticket_id", ticket.ID,
			"error", err,
		)
	}
}
