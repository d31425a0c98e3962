package history

import "time"

// Run is the summary row of one pipeline run.
type Run struct {
	RunID        string
	TargetID     string
	Locator      string
	Commit       string
	StartedAt    time.Time
	FinishedAt   time.Time
	Outcome      string
	FailedStage  string
	ErrorMessage string
	Overall      int
	Approval     string
	Degraded     int
	Fingerprint  string
}

// Duration is the wall time of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
