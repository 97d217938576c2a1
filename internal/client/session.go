package client

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"
	"sync"
)

// Messages shown to the user through the Prompter.
const (
	ConfirmDeleteMessage = "Are you sure you want to delete this activity?"
	SaveFailedMessage    = "Failed to save workout"
	DeleteFailedMessage  = "Failed to delete activity"
)

// ErrEmptyExercise is returned by Submit when the exercise name is blank.
var ErrEmptyExercise = errors.New("exercise name is required")

// API is the subset of Client the session drives.
type API interface {
	List(ctx context.Context) ([]Workout, error)
	Create(ctx context.Context, req CreateRequest) (Workout, error)
	Delete(ctx context.Context, id string) error
}

// Prompter asks the user for confirmation and shows failure alerts.
type Prompter interface {
	Confirm(message string) bool
	Alert(message string)
}

// State is the session lifecycle.
type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// Form holds the raw text of the entry fields.
type Form struct {
	Exercise string
	Sets     string
	Reps     string
	Weight   string
	Duration string
}

// Summary aggregates the loaded workouts.
type Summary struct {
	Count     int
	TotalSets int
	TotalReps int
}

// SessionOption configures optional behaviour for the Session.
type SessionOption func(*Session)

// WithLogger overrides the logger used for diagnostics.
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session holds form state and a newest-first list reconciled with the API after
// every successful mutation.
type Session struct {
	api      API
	prompter Prompter
	logger   *log.Logger

	mu       sync.Mutex
	state    State
	workouts []Workout
	form     Form
}

// NewSession constructs a Session in the loading state.
func NewSession(api API, prompter Prompter, opts ...SessionOption) *Session {
	s := &Session{
		api:      api,
		prompter: prompter,
		logger:   log.New(log.Writer(), "[session] ", log.LstdFlags),
		state:    StateLoading,
		workouts: []Workout{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll fetches the full list once. A failure is logged and leaves the session
// ready with an empty list.
func (s *Session) LoadAll(ctx context.Context) {
	workouts, err := s.api.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.logger.Printf("load workouts: %v", err)
		workouts = []Workout{}
	}
	s.workouts = workouts
	s.state = StateReady
}

// State reports whether the initial load has completed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetForm replaces the form contents.
func (s *Session) SetForm(form Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = form
}

// Form returns the current form contents.
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit sends the form to the API. On success the saved record is prepended and the
// form cleared. On failure the user is alerted and the form is kept for another try.
func (s *Session) Submit(ctx context.Context) (Workout, error) {
	form := s.Form()
	name := strings.TrimSpace(form.Exercise)
	if name == "" {
		return Workout{}, ErrEmptyExercise
	}

	saved, err := s.api.Create(ctx, CreateRequest{
		Exercise: name,
		Sets:     parseCount(form.Sets),
		Reps:     parseCount(form.Reps),
		Weight:   float64(parseCount(form.Weight)),
		Duration: float64(parseCount(form.Duration)),
	})
	if err != nil {
		s.logger.Printf("save workout: %v", err)
		s.prompter.Alert(SaveFailedMessage)
		return Workout{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts = append([]Workout{saved}, s.workouts...)
	s.form = Form{}
	return saved, nil
}

// Remove asks for confirmation and deletes the workout. It reports whether the
// workout was removed from the local list. Nothing is removed before the API agrees.
func (s *Session) Remove(ctx context.Context, id string) (bool, error) {
	if !s.prompter.Confirm(ConfirmDeleteMessage) {
		return false, nil
	}

	if err := s.api.Delete(ctx, id); err != nil {
		s.logger.Printf("delete workout %s: %v", id, err)
		s.prompter.Alert(DeleteFailedMessage)
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := make([]Workout, 0, len(s.workouts))
	for _, w := range s.workouts {
		if w.ID != id {
			kept = append(kept, w)
		}
	}
	s.workouts = kept
	return true, nil
}

// Workouts returns a copy of the local list, newest first.
func (s *Session) Workouts() []Workout {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Workout, len(s.workouts))
	copy(out, s.workouts)
	return out
}

// Summary totals the local list.
func (s *Session) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{Count: len(s.workouts)}
	for _, w := range s.workouts {
		sum.TotalSets += w.Sets
		sum.TotalReps += w.Reps
	}
	return sum
}

// parseCount reads the leading integer of text, ignoring anything after it.
// Blank or non-numeric text yields 0; magnitudes past math.MaxInt saturate.
func parseCount(text string) int {
	text = strings.TrimSpace(text)
	i := 0
	neg := false
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		neg = text[i] == '-'
		i++
	}
	n := 0
	for ; i < len(text) && text[i] >= '0' && text[i] <= '9'; i++ {
		d := int(text[i] - '0')
		if n > (math.MaxInt-d)/10 {
			n = math.MaxInt
			break
		}
		n = n*10 + d
	}
	if neg {
		return -n
	}
	return n
}
