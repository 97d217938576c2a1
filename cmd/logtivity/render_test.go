package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rwaynewhite15/logtivity/internal/client"
)

func TestRenderWorkouts(t *testing.T) {
	var buf bytes.Buffer
	r := renderer{out: &buf, loc: time.UTC}

	workouts := []client.Workout{
		{ID: "b", Exercise: "Push-ups", Reps: 20, CreatedAt: time.Date(2025, time.October, 27, 20, 5, 0, 0, time.UTC)},
		{ID: "a", Exercise: "Squat", Sets: 3, Reps: 10, Weight: 135.5, Duration: -2, CreatedAt: time.Date(2025, time.October, 26, 9, 0, 0, 0, time.UTC)},
	}
	r.workouts(client.StateReady, workouts, client.Summary{Count: 2, TotalSets: 3, TotalReps: 30})

	require.Equal(t, `Push-ups
  [20 reps]
  Date Created: Oct 27, 2025, 8:05 PM
  id: b

Squat
  [3 sets] [10 reps] [135.5 lbs]
  Date Created: Oct 26, 2025, 9:00 AM
  id: a

2 total workouts • 3 total sets • 30 total reps
`, buf.String())
}

func TestRenderEmptyAndLoading(t *testing.T) {
	var buf bytes.Buffer
	r := renderer{out: &buf, loc: time.UTC}

	r.workouts(client.StateLoading, nil, client.Summary{})
	r.workouts(client.StateReady, nil, client.Summary{})

	require.Equal(t, "Loading...\nNo workouts yet. Add your first one!\n", buf.String())
}

func TestBadgesOmitZeroMeasurements(t *testing.T) {
	require.Empty(t, badges(client.Workout{Exercise: "Stretch"}))
	require.Equal(t, "[45 mins]", badges(client.Workout{Duration: 45}))
}
