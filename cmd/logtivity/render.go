package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rwaynewhite15/logtivity/internal/client"
)

const dateLayout = "Jan 2, 2006, 3:04 PM"

// renderer prints the workout list the way the web front end laid it out.
type renderer struct {
	out io.Writer
	loc *time.Location
}

func (r renderer) workouts(state client.State, workouts []client.Workout, summary client.Summary) {
	if state == client.StateLoading {
		fmt.Fprintln(r.out, "Loading...")
		return
	}
	if len(workouts) == 0 {
		fmt.Fprintln(r.out, "No workouts yet. Add your first one!")
		return
	}

	for _, w := range workouts {
		r.workout(w)
		fmt.Fprintln(r.out)
	}
	fmt.Fprintf(r.out, "%d total workouts • %d total sets • %d total reps\n",
		summary.Count, summary.TotalSets, summary.TotalReps)
}

func (r renderer) workout(w client.Workout) {
	fmt.Fprintln(r.out, w.Exercise)
	if b := badges(w); b != "" {
		fmt.Fprintf(r.out, "  %s\n", b)
	}
	fmt.Fprintf(r.out, "  Date Created: %s\n", w.CreatedAt.In(r.loc).Format(dateLayout))
	fmt.Fprintf(r.out, "  id: %s\n", w.ID)
}

// badges lists only the measurements that are greater than zero.
func badges(w client.Workout) string {
	var parts []string
	if w.Sets > 0 {
		parts = append(parts, fmt.Sprintf("[%d sets]", w.Sets))
	}
	if w.Reps > 0 {
		parts = append(parts, fmt.Sprintf("[%d reps]", w.Reps))
	}
	if w.Weight > 0 {
		parts = append(parts, "["+formatNumber(w.Weight)+" lbs]")
	}
	if w.Duration > 0 {
		parts = append(parts, "["+formatNumber(w.Duration)+" mins]")
	}
	return strings.Join(parts, " ")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
