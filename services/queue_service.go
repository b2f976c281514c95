package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/DhavalSuthar-24/bookmytickets/internal/status"
	"github.com/DhavalSuthar-24/bookmytickets/models"
)

// ticketQueueKey is the Redis list holding pending ticket requests.
const ticketQueueKey = "ticketQueue"

// TicketQueue is the durable FIFO hand-off channel between the admission
// path and the fulfillment worker. Enqueue appends to the tail, Dequeue pops
// the head without blocking.
type TicketQueue struct {
	Redis *redis.Client
}

func NewTicketQueue(redisClient *redis.Client) *TicketQueue {
	return &TicketQueue{Redis: redisClient}
}

func (q *TicketQueue) Enqueue(ctx context.Context, req models.TicketRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal ticket request: %w", err)
	}

	if err := q.Redis.RPush(ctx, ticketQueueKey, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", status.ErrTransportFailure, err)
	}

	slog.Info("enqueued ticket request",
		"user_id", req.UserID,
		"ticket_id", req.TicketID,
		"payment_id", req.PaymentID,
	)
	return nil
}

// Dequeue pops the head entry. It returns status.ErrQueueEmpty when the list
// has no entries and status.ErrMalformedRequest for entries that do not
// carry the full identifier set; malformed entries are consumed, not left at
// the head.
func (q *TicketQueue) Dequeue(ctx context.Context) (*models.TicketRequest, error) {
	data, err := q.Redis.LPop(ctx, ticketQueueKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, status.ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrTransportFailure, err)
	}

	var req models.TicketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrMalformedRequest, err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrMalformedRequest, err)
	}

	return &req, nil
}

// Depth reports the number of pending requests, for monitoring.
func (q *TicketQueue) Depth(ctx context.Context) (int64, error) {
	depth, err := q.Redis.LLen(ctx, ticketQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", status.ErrTransportFailure, err)
	}
	return depth, nil
}
