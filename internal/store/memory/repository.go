// Package memory keeps workouts in process memory for local development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rwaynewhite15/logtivity/internal/domain"
)

// Repository stores workouts in memory, preserving insertion order.
type Repository struct {
	mu       sync.RWMutex
	order    []string
	workouts map[string]domain.Workout
	newID    func() string
}

// NewRepository constructs an empty repository.
func NewRepository() *Repository {
	return &Repository{
		workouts: make(map[string]domain.Workout),
		newID:    uuid.NewString,
	}
}

// Insert implements domain.Repository.
func (r *Repository) Insert(ctx context.Context, workout domain.NewWorkout) (domain.Workout, error) {
	if err := ctx.Err(); err != nil {
		return domain.Workout{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := workout.WithID(r.newID())
	r.workouts[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return stored, nil
}

// List implements domain.Repository.
func (r *Repository) List(ctx context.Context) ([]domain.Workout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Workout, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.workouts[id])
	}
	return out, nil
}

// Delete implements domain.Repository.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.workouts[id]; !ok {
		return false, nil
	}
	delete(r.workouts, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true, nil
}
