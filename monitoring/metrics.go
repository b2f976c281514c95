package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ticket_queue_depth",
			Help: "Number of pending ticket requests in the fulfillment queue",
		},
	)

	fulfillments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_fulfillments_total",
			Help: "Processed ticket requests by outcome",
		},
		[]string{"outcome"},
	)

	fulfillmentDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ticket_fulfillment_duration_seconds",
			Help:    "Duration of successful reservation transitions",
			Buckets: prometheus.DefBuckets,
		},
	)

	notificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_notification_failures_total",
			Help: "Post-commit notification delivery failures by channel",
		},
		[]string{"channel"},
	)
)

// TrackFulfillment counts one processed request: "sold" or a failure reason.
func TrackFulfillment(outcome string) {
	fulfillments.WithLabelValues(outcome).Inc()
}

// ObserveFulfillment records the duration of a committed transition.
func ObserveFulfillment(d time.Duration) {
	fulfillmentDuration.Observe(d.Seconds())
}

// TrackNotificationFailure counts a failed broadcast or push delivery.
func TrackNotificationFailure(channel string) {
	notificationFailures.WithLabelValues(channel).Inc()
}

// Monitor periodically samples queue depth through the given probe, so the
// queue key stays owned by the queue itself.
type Monitor struct {
	depth    func(context.Context) (int64, error)
	interval time.Duration
}

func NewMonitor(depth func(context.Context) (int64, error)) *Monitor {
	return &Monitor{
		depth:    depth,
		interval: 30 * time.Second,
	}
}

func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collectQueueDepth(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) collectQueueDepth(ctx context.Context) {
	depth, err := m.depth(ctx)
	if err != nil {
		slog.Error("queue depth collection failed", "error", err)
		return
	}
	queueDepth.Set(float64(depth))
}
