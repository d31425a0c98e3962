package pipeline

import (
	"time"

	"git.home.luguber.info/inful/repodoc/internal/section"
)

// Event is a run lifecycle event published on the Bus.
type Event interface {
	Name() string
	GetRunID() string
}

// Event names.
const (
	EventRunStarted      = "RunStarted"
	EventStageCompleted  = "StageCompleted"
	EventStageFailed     = "StageFailed"
	EventSectionDegraded = "SectionDegraded"
	EventRunFinished     = "RunFinished"
)

// RunStarted is published once the run id is allocated.
type RunStarted struct {
	RunID    string
	TargetID string
	Locator  string
	At       time.Time
}

func (RunStarted) Name() string       { return EventRunStarted }
func (e RunStarted) GetRunID() string { return e.RunID }

// StageCompleted is published after every stage that produced output.
type StageCompleted struct {
	RunID    string
	Stage    State
	Duration time.Duration
}

func (StageCompleted) Name() string       { return EventStageCompleted }
func (e StageCompleted) GetRunID() string { return e.RunID }

// StageFailed is published when a stage ends the run.
type StageFailed struct {
	RunID    string
	Stage    State
	Duration time.Duration
	Err      error
}

func (StageFailed) Name() string       { return EventStageFailed }
func (e StageFailed) GetRunID() string { return e.RunID }

// SectionDegraded is published for every degraded section.
type SectionDegraded struct {
	RunID       string
	Degradation section.Degradation
}

func (SectionDegraded) Name() string       { return EventSectionDegraded }
func (e SectionDegraded) GetRunID() string { return e.RunID }

// RunFinished is published last, for every outcome.
type RunFinished struct {
	Result *Result
}

func (RunFinished) Name() string       { return EventRunFinished }
func (e RunFinished) GetRunID() string { return e.Result.RunID }
