package domain_test

import (
	"context"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/rwaynewhite15/logtivity/internal/domain"
	"github.com/rwaynewhite15/logtivity/internal/store/memory"
)

var fixedNow = time.Date(2025, time.October, 27, 20, 0, 0, 0, time.UTC)

func newService(t *testing.T, repo domain.Repository) *domain.Service {
	t.Helper()
	return domain.NewService(repo,
		domain.WithClock(func() time.Time { return fixedNow }),
		domain.WithLogger(log.New(testWriter{t}, "", 0)),
	)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func TestCreateWorkoutFillsAbsentFieldsWithZero(t *testing.T) {
	service := newService(t, memory.NewRepository())

	saved, err := service.CreateWorkout(context.Background(), domain.CreateWorkoutInput{
		Exercise: "Push-ups",
		Reps:     intPtr(20),
	})
	require.NoError(t, err)

	require.NotEmpty(t, saved.ID)
	require.Equal(t, "Push-ups", saved.Exercise)
	require.Equal(t, 0, saved.Sets)
	require.Equal(t, 20, saved.Reps)
	require.Zero(t, saved.Weight)
	require.Zero(t, saved.Duration)
	require.Equal(t, fixedNow, saved.CreatedAt)
}

func TestCreateWorkoutPreservesNegativeAndExplicitZero(t *testing.T) {
	service := newService(t, memory.NewRepository())

	saved, err := service.CreateWorkout(context.Background(), domain.CreateWorkoutInput{
		Exercise: "Bench",
		Sets:     intPtr(-3),
		Reps:     intPtr(0),
		Weight:   floatPtr(-12.5),
		Duration: floatPtr(0),
	})
	require.NoError(t, err)

	require.Equal(t, -3, saved.Sets)
	require.Equal(t, 0, saved.Reps)
	require.Equal(t, -12.5, saved.Weight)
	require.Zero(t, saved.Duration)
}

func TestCreateWorkoutKeepsSuppliedTimestamp(t *testing.T) {
	service := newService(t, memory.NewRepository())
	supplied := time.Date(2024, time.January, 5, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))

	saved, err := service.CreateWorkout(context.Background(), domain.CreateWorkoutInput{
		Exercise:  "Run",
		CreatedAt: supplied,
	})
	require.NoError(t, err)
	require.True(t, supplied.Equal(saved.CreatedAt))
	require.Equal(t, time.UTC, saved.CreatedAt.Location())
}

func TestCreateWorkoutAcceptsEmptyExercise(t *testing.T) {
	service := newService(t, memory.NewRepository())

	saved, err := service.CreateWorkout(context.Background(), domain.CreateWorkoutInput{Exercise: "   "})
	require.NoError(t, err, "blank names are rejected by clients, not by the store")
	require.Equal(t, "   ", saved.Exercise)
}

func TestCreateWorkoutWrapsStoreFailure(t *testing.T) {
	service := newService(t, &failingRepo{err: errors.New("connection refused")})

	_, err := service.CreateWorkout(context.Background(), domain.CreateWorkoutInput{Exercise: "Row"})
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrPersistence)
	require.Equal(t, "connection refused", err.Error())

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "create", perr.Op)
}

func TestListReturnsEveryRecordOnce(t *testing.T) {
	ctx := context.Background()
	service := newService(t, memory.NewRepository())

	created := make([]string, 0, 3)
	for _, name := range []string{"Squat", "Deadlift", "Press"} {
		saved, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{Exercise: name})
		require.NoError(t, err)
		created = append(created, saved.ID)
	}

	listed, err := service.ListWorkouts(ctx)
	require.NoError(t, err)

	ids := make([]string, 0, len(listed))
	for _, w := range listed {
		ids = append(ids, w.ID)
	}
	require.Equal(t, created, ids)
}

func TestListEmptyStoreReturnsEmptySlice(t *testing.T) {
	listed, err := newService(t, memory.NewRepository()).ListWorkouts(context.Background())
	require.NoError(t, err)
	require.NotNil(t, listed)
	require.Empty(t, listed)
}

func TestRoundTripMatchesFieldForField(t *testing.T) {
	ctx := context.Background()
	service := newService(t, memory.NewRepository())

	saved, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{
		Exercise: "Clean",
		Sets:     intPtr(5),
		Reps:     intPtr(3),
		Weight:   floatPtr(135),
		Duration: floatPtr(12.5),
	})
	require.NoError(t, err)

	listed, err := service.ListWorkouts(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.Equal(t, *saved, listed[0])
}

func TestDeleteThenListExcludesRecord(t *testing.T) {
	ctx := context.Background()
	service := newService(t, memory.NewRepository())

	saved, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{Exercise: "Push-ups", Reps: intPtr(20)})
	require.NoError(t, err)

	require.NoError(t, service.DeleteWorkout(ctx, saved.ID))

	listed, err := service.ListWorkouts(ctx)
	require.NoError(t, err)
	for _, w := range listed {
		require.NotEqual(t, saved.ID, w.ID)
	}
}

func TestDeleteUnknownIDSucceeds(t *testing.T) {
	service := newService(t, memory.NewRepository())
	require.NoError(t, service.DeleteWorkout(context.Background(), "does-not-exist"))
}

func TestDeleteWrapsStoreFailure(t *testing.T) {
	service := newService(t, &failingRepo{err: errors.New("timeout")})

	err := service.DeleteWorkout(context.Background(), "abc")
	require.ErrorIs(t, err, domain.ErrPersistence)
}

func TestServiceRecordsWorkoutMetrics(t *testing.T) {
	ctx := context.Background()
	service := newService(t, memory.NewRepository())

	created := metricValue(t, "logtivity_workouts_created_total", nil)
	removed := metricValue(t, "logtivity_workouts_deleted_total", map[string]string{"outcome": "removed"})
	missing := metricValue(t, "logtivity_workouts_deleted_total", map[string]string{"outcome": "missing"})

	saved, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{Exercise: "Row"})
	require.NoError(t, err)
	require.Equal(t, created+1, metricValue(t, "logtivity_workouts_created_total", nil))
	require.Equal(t, float64(fixedNow.Unix()), metricValue(t, "logtivity_workouts_last_workout_created_timestamp_seconds", nil))

	require.NoError(t, service.DeleteWorkout(ctx, saved.ID))
	require.NoError(t, service.DeleteWorkout(ctx, saved.ID))
	require.Equal(t, removed+1, metricValue(t, "logtivity_workouts_deleted_total", map[string]string{"outcome": "removed"}))
	require.Equal(t, missing+1, metricValue(t, "logtivity_workouts_deleted_total", map[string]string{"outcome": "missing"}))
}

func TestServiceSkipsMetricsOnStoreFailure(t *testing.T) {
	ctx := context.Background()
	service := newService(t, &failingRepo{err: errors.New("down")})

	created := metricValue(t, "logtivity_workouts_created_total", nil)
	missing := metricValue(t, "logtivity_workouts_deleted_total", map[string]string{"outcome": "missing"})

	_, err := service.CreateWorkout(ctx, domain.CreateWorkoutInput{Exercise: "Row"})
	require.Error(t, err)
	require.Error(t, service.DeleteWorkout(ctx, "abc"))

	require.Equal(t, created, metricValue(t, "logtivity_workouts_created_total", nil))
	require.Equal(t, missing, metricValue(t, "logtivity_workouts_deleted_total", map[string]string{"outcome": "missing"}))
}

// metricValue reads a counter or gauge from the default registry; series that have not
// been observed yet read as zero.
func metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !hasLabels(metric, labels) {
				continue
			}
			if counter := metric.GetCounter(); counter != nil {
				return counter.GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	return 0
}

func hasLabels(metric *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

type failingRepo struct {
	err error
}

func (f *failingRepo) Insert(context.Context, domain.NewWorkout) (domain.Workout, error) {
	return domain.Workout{}, f.err
}

func (f *failingRepo) List(context.Context) ([]domain.Workout, error) { return nil, f.err }

func (f *failingRepo) Delete(context.Context, string) (bool, error) { return false, f.err }

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}
