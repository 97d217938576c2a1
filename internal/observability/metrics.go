package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	workoutCreatedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "logtivity",
		Subsystem: "workouts",
		Name:      "last_workout_created_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout persisted.",
	})

	workoutsCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "logtivity",
		Subsystem: "workouts",
		Name:      "created_total",
		Help:      "Number of workouts persisted.",
	})

	workoutsDeletedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "logtivity",
		Subsystem: "workouts",
		Name:      "deleted_total",
		Help:      "Number of delete requests acknowledged, labeled by whether a record existed.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(workoutCreatedGauge, workoutsCreatedCounter, workoutsDeletedCounter)
}

// RecordWorkoutCreated bumps the create counter and the creation watermark.
func RecordWorkoutCreated(ts time.Time) {
	workoutsCreatedCounter.Inc()
	if ts.IsZero() {
		return
	}
	workoutCreatedGauge.Set(float64(ts.Unix()))
}

// RecordWorkoutDeleted counts an acknowledged delete.
func RecordWorkoutDeleted(removed bool) {
	outcome := "removed"
	if !removed {
		outcome = "missing"
	}
	workoutsDeletedCounter.WithLabelValues(outcome).Inc()
}
