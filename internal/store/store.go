// Package store persists run artifacts and the regeneration block under a
// stable target id. Backends: local filesystem, NATS JetStream key-value,
// and S3-compatible object storage.
package store

import (
	"context"
	stderrors "errors"
	"path"
	"time"
)

// Artifact names written for every successful run.
const (
	DocumentName     = "README.md"
	HTMLName         = "README.html"
	TestStrategyName = "test_strategy.yaml"
	BlockName        = "regeneration.json"
	BlockMarkdown    = "regeneration.md"
	ReportName       = "run_report.md"
)

// ErrNotFound is returned by Get when no artifact exists under a key.
var ErrNotFound = stderrors.New("artifact not found")

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// ArtifactStore is a flat key-value store of artifact bytes. Put replaces a
// key atomically: readers observe either the old or the new value. Delete of
// an absent key is not an error.
type ArtifactStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// RunEvent announces a completed run.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	TargetID   string    `json:"target_id"`
	Outcome    string    `json:"outcome"`
	Overall    int       `json:"overall"`
	Approval   string    `json:"approval"`
	Keys       []string  `json:"keys"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher is implemented by backends that can broadcast run events.
type Publisher interface {
	PublishRunCompleted(ctx context.Context, ev RunEvent) error
}

// Key joins a target id and an artifact name.
func Key(targetID, name string) string {
	return path.Join(targetID, name)
}
