package domain

import "time"

// Workout is the canonical logged exercise entry.
type Workout struct {
	ID        string
	Exercise  string
	Sets      int
	Reps      int
	Weight    float64 // pounds
	Duration  float64 // minutes
	CreatedAt time.Time
}

// NewWorkout is a record accepted by the service but not yet persisted.
// Repositories assign the identifier.
type NewWorkout struct {
	Exercise  string
	Sets      int
	Reps      int
	Weight    float64
	Duration  float64
	CreatedAt time.Time
}

// WithID materialises the persisted form of the record.
func (n NewWorkout) WithID(id string) Workout {
	return Workout{
		ID:        id,
		Exercise:  n.Exercise,
		Sets:      n.Sets,
		Reps:      n.Reps,
		Weight:    n.Weight,
		Duration:  n.Duration,
		CreatedAt: n.CreatedAt,
	}
}
