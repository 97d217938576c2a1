package outbox

import "github.com/rwaynewhite15/logtivity/internal/events"

// SchemaCatalogEntry maps an event type to its JSON schema.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeWorkoutCreated: {Schema: workoutCreatedSchema},
	events.TypeWorkoutDeleted: {Schema: workoutDeletedSchema},
}

const workoutCreatedSchema = `{
  "type": "object",
  "title": "WorkoutCreated",
  "properties": {
    "workout_id": {"type": "string"},
    "exercise": {"type": "string"},
    "sets": {"type": "integer"},
    "reps": {"type": "integer"},
    "weight": {"type": "number"},
    "duration": {"type": "number"},
    "created_at": {"type": "string", "format": "date-time"}
  },
  "required": ["workout_id", "exercise", "sets", "reps", "weight", "duration", "created_at"],
  "additionalProperties": false
}`

const workoutDeletedSchema = `{
  "type": "object",
  "title": "WorkoutDeleted",
  "properties": {
    "workout_id": {"type": "string"},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["workout_id", "occurred_at"],
  "additionalProperties": false
}`
