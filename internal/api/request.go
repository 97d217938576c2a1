package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rwaynewhite15/logtivity/internal/domain"
)

// CreateWorkoutRequest is the payload for POST /api/workouts.
type CreateWorkoutRequest struct {
	Exercise string         `json:"exercise"`
	Sets     optionalNumber `json:"sets"`
	Reps     optionalNumber `json:"reps"`
	Weight   optionalNumber `json:"weight"`
	Duration optionalNumber `json:"duration"`
}

func (r CreateWorkoutRequest) toInput() domain.CreateWorkoutInput {
	return domain.CreateWorkoutInput{
		Exercise: r.Exercise,
		Sets:     r.Sets.intPtr(),
		Reps:     r.Reps.intPtr(),
		Weight:   r.Weight.floatPtr(),
		Duration: r.Duration.floatPtr(),
	}
}

// optionalNumber accepts the loosely typed numbers browsers send: JSON numbers,
// numeric strings and booleans. null, "" and false count as not supplied.
type optionalNumber struct {
	set   bool
	value float64
}

func (n *optionalNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*n = optionalNumber{}

	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		return nil
	case bytes.Equal(data, []byte("true")):
		*n = optionalNumber{set: true, value: 1}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return n.parse(s)
	default:
		return n.parse(string(data))
	}
}

func (n *optionalNumber) parse(raw string) error {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s is not a number", raw)
	}
	*n = optionalNumber{set: true, value: v}
	return nil
}

// intPtr truncates toward zero. Counts beyond the int range saturate at its bounds
// rather than wrapping.
func (n optionalNumber) intPtr() *int {
	if !n.set {
		return nil
	}
	var v int
	switch t := math.Trunc(n.value); {
	case t >= -math.MinInt:
		v = math.MaxInt
	case t <= math.MinInt:
		v = math.MinInt
	default:
		v = int(t)
	}
	return &v
}

func (n optionalNumber) floatPtr() *float64 {
	if !n.set {
		return nil
	}
	v := n.value
	return &v
}
