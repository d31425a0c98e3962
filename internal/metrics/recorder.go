package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultDegraded ResultLabel = "degraded"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for runs, stages and generation calls.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string)
	IncGenerationCall(state string)
	IncGenerationRetry(kind string)
	ObserveGenerationAttempts(section string, attempts int)
	SetQualityScore(target, axis string, score int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) IncGenerationCall(string)                   {}
func (NoopRecorder) IncGenerationRetry(string)                  {}
func (NoopRecorder) ObserveGenerationAttempts(string, int)      {}
func (NoopRecorder) SetQualityScore(string, string, int)        {}
