package pipeline

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/acquire"
	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/document"
	"git.home.luguber.info/inful/repodoc/internal/feedback"
	"git.home.luguber.info/inful/repodoc/internal/generation"
	"git.home.luguber.info/inful/repodoc/internal/metrics"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/quality"
	"git.home.luguber.info/inful/repodoc/internal/review"
	"git.home.luguber.info/inful/repodoc/internal/section"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
	"git.home.luguber.info/inful/repodoc/internal/testsuite"
)

// Stages are the capabilities a run is composed of. Tests replace single
// fields to inject failures.
type Stages struct {
	Acquire   func(ctx context.Context, locator string) (*acquire.Checkout, error)
	Ingest    func(ctx context.Context, dir string) (*snapshot.Snapshot, error)
	Plan      func(snap *snapshot.Snapshot, prior *feedback.Block) outline.Outline
	Generate  func(ctx context.Context, ol outline.Outline, snap *snapshot.Snapshot) ([]section.Content, []section.Degradation, error)
	Assemble  func(ol outline.Outline, contents []section.Content, title string) (*document.Artifact, error)
	TestSuite func(snap *snapshot.Snapshot) testsuite.Strategy
	Review    func(doc *document.Artifact, snap *snapshot.Snapshot) quality.Scorecard
	Feedback  func(card quality.Scorecard, targetID, runID string, now time.Time) feedback.Block
}

// DefaultStages wires the standard components from configuration.
func DefaultStages(cfg *config.Config, svc generation.Service, logger *slog.Logger, recorder metrics.Recorder) Stages {
	acq := acquire.New(cfg.Acquire, nil, logger)
	builder := snapshot.NewBuilder(cfg.Pipeline.MaxFileSizeBytes)
	planner := outline.NewPlanner(logger)
	gen := section.NewGenerator(svc, section.OptionsFromConfig(cfg.Pipeline, cfg.Generation), logger, recorder)
	reviewer := review.NewReviewer(review.PolicyFromConfig(cfg.Pipeline, cfg.Review))

	return Stages{
		Acquire:  acq.Acquire,
		Ingest:   builder.Build,
		Plan:     planner.Plan,
		Generate: gen.GenerateAll,
		Assemble: func(ol outline.Outline, contents []section.Content, title string) (*document.Artifact, error) {
			return document.Assemble(ol, contents, document.WithTitle(title))
		},
		TestSuite: testsuite.Generate,
		Review:    reviewer.Review,
		Feedback:  feedback.Build,
	}
}
