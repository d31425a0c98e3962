// Package history records pipeline runs and their stage events in SQLite so
// `repodoc history` can show how a target's documentation evolved.
package history

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
)

// Event types appended during a run.
const (
	EventRunStarted      = "RunStarted"
	EventStageCompleted  = "StageCompleted"
	EventStageFailed     = "StageFailed"
	EventSectionDegraded = "SectionDegraded"
	EventRunFinished     = "RunFinished"
)

// Event is one row of a run's event log.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Timestamp time.Time
	Payload   []byte
}

// Decode unmarshals the JSON payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return errors.WrapError(err, errors.CategoryHistory, "failed to unmarshal event payload").
			WithContext("event_type", e.Type).
			Build()
	}
	return nil
}

// StagePayload describes a finished or failed stage.
type StagePayload struct {
	Stage      string `json:"stage"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// SectionPayload describes a degraded section.
type SectionPayload struct {
	SectionID string `json:"section_id"`
	Kind      string `json:"kind"`
	Attempts  int    `json:"attempts"`
	Reason    string `json:"reason,omitempty"`
}

// RunPayload describes the start or end of a run.
type RunPayload struct {
	TargetID string `json:"target_id"`
	Locator  string `json:"locator,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
	Overall  int    `json:"overall,omitempty"`
}

func marshalPayload(eventType string, v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "failed to marshal event payload").
			WithContext("event_type", eventType).
			Build()
	}
	return b, nil
}
