package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Stages an outbox event passes through, used as the "stage" metric label.
const (
	stageDelivered      = "delivered"
	stageFailed         = "failed"
	stageDeadLettered   = "dead_lettered"
	stageRetryScheduled = "retry_scheduled"
	stageRequeued       = "requeued"
	stageQuarantined    = "quarantined"
)

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "logtivity",
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Workout events moving through the outbox and its dead-letter queue, by stage.",
	}, []string{"event_type", "stage"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "logtivity",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent fetching, delivering, and marking outbox batches.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqBacklogGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logtivity",
		Subsystem: "outbox",
		Name:      "dlq_backlog",
		Help:      "Dead-letter entries that are neither requeued nor quarantined.",
	})
)

func init() {
	prometheus.MustRegister(eventsCounter, batchDuration, dlqBacklogGauge)
}

func recordStage(stage string, messages ...Message) {
	for _, msg := range messages {
		eventsCounter.WithLabelValues(msg.EventType, stage).Inc()
	}
}

func recordEntryStage(stage string, entry dlqEntry) {
	eventsCounter.WithLabelValues(entry.EventType, stage).Inc()
}

func updateBacklogGauge(ctx context.Context, pool *pgxpool.Pool) {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL`).Scan(&count); err != nil {
		return
	}
	dlqBacklogGauge.Set(float64(count))
}
