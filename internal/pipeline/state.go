package pipeline

import (
	"fmt"
	"time"
)

// State is a pipeline run state.
type State string

const (
	StateIngesting      State = "ingesting"
	StatePlanning       State = "planning"
	StateGenerating     State = "generating"
	StateAssembling     State = "assembling"
	StateTestGenerating State = "test_generating"
	StateReviewing      State = "reviewing"
	StateFeedingBack    State = "feeding_back"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeDegraded Outcome = "degraded"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
)

// transitions is the run state table. Stage errors fail the run only from
// ingesting and assembling; the other stages degrade instead. Every state may
// still fail on cancellation or when persisting the artifacts fails.
var transitions = map[State][]State{
	"":                  {StateIngesting},
	StateIngesting:      {StatePlanning, StateFailed},
	StatePlanning:       {StateGenerating, StateFailed},
	StateGenerating:     {StateAssembling, StateFailed},
	StateAssembling:     {StateTestGenerating, StateReviewing, StateFailed},
	StateTestGenerating: {StateReviewing, StateFailed},
	StateReviewing:      {StateFeedingBack, StateFailed},
	StateFeedingBack:    {StateDone, StateFailed},
}

// Transition records one state change.
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type machine struct {
	state State
	log   []Transition
	now   func() time.Time
}

func (m *machine) move(to State) error {
	if !canTransition(m.state, to) {
		return fmt.Errorf("illegal run transition %s -> %s", m.state, to)
	}
	m.log = append(m.log, Transition{From: m.state, To: to, At: m.now()})
	m.state = to
	return nil
}
