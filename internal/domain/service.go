// Package domain defines the workout record lifecycle: creation with default filling,
// full listing and deletion by identifier.
package domain

import (
	"context"
	"log"
	"time"

	"github.com/rwaynewhite15/logtivity/internal/observability"
)

// Repository captures persistence operations. Implementations assign identifiers on
// Insert and return records from List in their native insertion order.
type Repository interface {
	Insert(ctx context.Context, workout NewWorkout) (Workout, error)
	List(ctx context.Context) ([]Workout, error)
	// Delete removes the record and reports whether one existed.
	Delete(ctx context.Context, id string) (bool, error)
}

// CreateWorkoutInput is the partially specified record received from the API layer.
// A nil numeric field means the caller did not supply it.
type CreateWorkoutInput struct {
	Exercise  string
	Sets      *int
	Reps      *int
	Weight    *float64
	Duration  *float64
	CreatedAt time.Time
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithLogger overrides the logger used by the service.
func WithLogger(logger *log.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used to stamp new records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service orchestrates workout workflows.
type Service struct {
	repo   Repository
	logger *log.Logger
	now    func() time.Time
}

// NewService constructs a Service around an already opened repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: log.New(log.Writer(), "[workouts] ", log.LstdFlags),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateWorkout fills defaults for absent numeric fields and persists the record.
// Explicit zero and negative values are stored as given. The exercise label is not
// validated here; clients are expected to reject blank names before submitting.
func (s *Service) CreateWorkout(ctx context.Context, input CreateWorkoutInput) (*Workout, error) {
	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	record := NewWorkout{
		Exercise:  input.Exercise,
		Sets:      valueOrZero(input.Sets),
		Reps:      valueOrZero(input.Reps),
		Weight:    valueOrZero(input.Weight),
		Duration:  valueOrZero(input.Duration),
		CreatedAt: createdAt.UTC(),
	}

	saved, err := s.repo.Insert(ctx, record)
	if err != nil {
		s.logger.Printf("save error: %v", err)
		return nil, persistenceError("create", err)
	}

	observability.RecordWorkoutCreated(saved.CreatedAt)
	return &saved, nil
}

// ListWorkouts returns every stored record in store order.
func (s *Service) ListWorkouts(ctx context.Context) ([]Workout, error) {
	workouts, err := s.repo.List(ctx)
	if err != nil {
		return nil, persistenceError("list", err)
	}
	if workouts == nil {
		workouts = []Workout{}
	}
	return workouts, nil
}

// DeleteWorkout removes the record with the given id. Deleting an id that does not
// exist succeeds; the miss is only visible in logs and metrics.
func (s *Service) DeleteWorkout(ctx context.Context, id string) error {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return persistenceError("delete", err)
	}
	if !removed {
		s.logger.Printf("delete: no workout with id %q", id)
	}
	observability.RecordWorkoutDeleted(removed)
	return nil
}

func valueOrZero[T int | float64](v *T) T {
	if v == nil {
		return 0
	}
	return *v
}
