package consumer

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeProcessed   = "processed"
	outcomeRetried     = "retried"
	outcomeDropped     = "dropped"
	outcomeUndecodable = "undecodable"
)

var (
	messagesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "logtivity",
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Workout events seen by the consumer, by outcome.",
	}, []string{"topic", "event_type", "outcome"})

	latestEventGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "logtivity",
		Subsystem: "consumer",
		Name:      "latest_event_timestamp_seconds",
		Help:      "Kafka timestamp of the newest handled event per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(messagesCounter, latestEventGauge)
}

func recordOutcome(topic, eventType, outcome string) {
	messagesCounter.WithLabelValues(topic, eventType, outcome).Inc()
}

func recordLatest(msg Message) {
	if msg.Timestamp.IsZero() {
		return
	}
	latestEventGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
}
