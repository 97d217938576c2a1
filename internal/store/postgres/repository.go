// Package postgres stores workouts in PostgreSQL and records lifecycle events in the
// outbox table within the same transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rwaynewhite15/logtivity/internal/domain"
	"github.com/rwaynewhite15/logtivity/internal/events"
)

// Repository provides Postgres-backed persistence for workouts and outbox events.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// Insert persists the workout and its workout.created event inside a single transaction.
func (r *Repository) Insert(ctx context.Context, workout domain.NewWorkout) (saved domain.Workout, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Workout{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	saved = workout.WithID(uuid.NewString())
	// timestamptz keeps microseconds.
	saved.CreatedAt = saved.CreatedAt.UTC().Truncate(time.Microsecond)

	const insertWorkout = `INSERT INTO workouts (workout_id, exercise, sets, reps, weight, duration, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	if _, err = tx.Exec(ctx, insertWorkout,
		saved.ID,
		saved.Exercise,
		saved.Sets,
		saved.Reps,
		saved.Weight,
		saved.Duration,
		saved.CreatedAt,
	); err != nil {
		return domain.Workout{}, err
	}

	if err = insertOutbox(ctx, tx, saved.ID, events.TypeWorkoutCreated, events.WorkoutCreated{
		WorkoutID: saved.ID,
		Exercise:  saved.Exercise,
		Sets:      saved.Sets,
		Reps:      saved.Reps,
		Weight:    saved.Weight,
		Duration:  saved.Duration,
		CreatedAt: saved.CreatedAt,
	}); err != nil {
		return domain.Workout{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return domain.Workout{}, err
	}
	return saved, nil
}

// List returns all workouts in insertion order.
func (r *Repository) List(ctx context.Context) ([]domain.Workout, error) {
	const query = `SELECT workout_id, exercise, sets, reps, weight, duration, created_at
        FROM workouts ORDER BY seq`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Workout, 0)
	for rows.Next() {
		var w domain.Workout
		if err := rows.Scan(&w.ID, &w.Exercise, &w.Sets, &w.Reps, &w.Weight, &w.Duration, &w.CreatedAt); err != nil {
			return nil, err
		}
		w.CreatedAt = w.CreatedAt.UTC()
		results = append(results, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes the workout and records workout.deleted when a row existed.
func (r *Repository) Delete(ctx context.Context, id string) (removed bool, err error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var deletedID string
	err = tx.QueryRow(ctx, `DELETE FROM workouts WHERE workout_id=$1 RETURNING workout_id`, id).Scan(&deletedID)
	if errors.Is(err, pgx.ErrNoRows) {
		err = nil
		return false, tx.Commit(ctx)
	}
	if err != nil {
		return false, err
	}

	if err = insertOutbox(ctx, tx, deletedID, events.TypeWorkoutDeleted, events.WorkoutDeleted{
		WorkoutID:  deletedID,
		OccurredAt: r.now().UTC(),
	}); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, workoutID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	dedupeKey := fmt.Sprintf("%s:%s", workoutID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		"workout",
		workoutID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		workoutID,
		body,
		dedupeKey,
	)
	return err
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	events.TypeWorkoutCreated: {
		Topic:         "workout_events",
		SchemaSubject: "workout_created-value",
	},
	events.TypeWorkoutDeleted: {
		Topic:         "workout_events",
		SchemaSubject: "workout_deleted-value",
	},
}
