package mission

import (
	"time"

	"github.com/google/uuid"

	"github.com/talgya/farmsim/internal/crops"
)

// Action kinds recorded in the decision log.
const (
	ActionIrrigate  = "irrigate"
	ActionFertilize = "fertilize"
	ActionHarvest   = "harvest"
)

// Decision is one player action recorded for scoring.
type Decision struct {
	ID        uuid.UUID     `json:"id"`
	Action    string        `json:"action"`
	FieldID   crops.FieldID `json:"field_id"`
	Timestamp time.Time     `json:"timestamp"`
}

// Log is an append-only ordered sequence of decisions.
type Log struct {
	entries []Decision
}

// Append records a decision and returns it.
func (l *Log) Append(action string, field crops.FieldID, at time.Time) Decision {
	d := Decision{
		ID:        uuid.New(),
		Action:    action,
		FieldID:   field,
		Timestamp: at,
	}
	l.entries = append(l.entries, d)
	return d
}

// Entries returns a copy of the logged decisions in order.
func (l *Log) Entries() []Decision {
	return append([]Decision(nil), l.entries...)
}

// Len returns the number of logged decisions.
func (l *Log) Len() int {
	return len(l.entries)
}

// Clear empties the log.
func (l *Log) Clear() {
	l.entries = nil
}

// contains reports whether any decision matches action on field.
func contains(log []Decision, action string, field crops.FieldID) bool {
	for _, d := range log {
		if d.Action == action && d.FieldID == field {
			return true
		}
	}
	return false
}
