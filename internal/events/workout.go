// Package events defines the workout lifecycle payloads published through the outbox.
package events

import "time"

// Event types carried in the outbox and in the Kafka event_type header.
const (
	TypeWorkoutCreated = "workout.created"
	TypeWorkoutDeleted = "workout.deleted"
)

// WorkoutCreated is emitted when a workout record is persisted.
type WorkoutCreated struct {
	WorkoutID string    `json:"workout_id"`
	Exercise  string    `json:"exercise"`
	Sets      int       `json:"sets"`
	Reps      int       `json:"reps"`
	Weight    float64   `json:"weight"`
	Duration  float64   `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkoutDeleted is emitted when a workout record is removed.
type WorkoutDeleted struct {
	WorkoutID  string    `json:"workout_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
