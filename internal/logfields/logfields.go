package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyTarget     = "target"
	KeyLocator    = "locator"
	KeyStage      = "stage"
	KeyState      = "state"
	KeySection    = "section"
	KeyAttempt    = "attempt"
	KeyProvider   = "provider"
	KeyModel      = "model"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyCommit     = "commit"
	KeyOutcome    = "outcome"
	KeyScore      = "score"
	KeyBackend    = "backend"
	KeyKey        = "key"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Target(id string) slog.Attr      { return slog.String(KeyTarget, id) }
func Locator(l string) slog.Attr      { return slog.String(KeyLocator, l) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func State(s string) slog.Attr        { return slog.String(KeyState, s) }
func Section(id string) slog.Attr     { return slog.String(KeySection, id) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Provider(p string) slog.Attr     { return slog.String(KeyProvider, p) }
func Model(m string) slog.Attr        { return slog.String(KeyModel, m) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Commit(c string) slog.Attr       { return slog.String(KeyCommit, c) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Score(s int) slog.Attr           { return slog.Int(KeyScore, s) }
func Backend(b string) slog.Attr      { return slog.String(KeyBackend, b) }
func Key(k string) slog.Attr          { return slog.String(KeyKey, k) }

// Error renders err as a string attribute; nil yields an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
