// Package pipeline runs one documentation pass over a repository: ingest,
// plan, generate, assemble, test strategy, review and feedback. Artifacts are
// persisted only when every stage completed.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/repodoc/internal/acquire"
	"git.home.luguber.info/inful/repodoc/internal/document"
	"git.home.luguber.info/inful/repodoc/internal/feedback"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/metrics"
	"git.home.luguber.info/inful/repodoc/internal/outline"
	"git.home.luguber.info/inful/repodoc/internal/quality"
	"git.home.luguber.info/inful/repodoc/internal/section"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
	"git.home.luguber.info/inful/repodoc/internal/store"
	"git.home.luguber.info/inful/repodoc/internal/testsuite"
)

// Request describes one run.
type Request struct {
	Locator string
	// TargetID overrides the id derived from Locator.
	TargetID string
	// Prior is the regeneration block to plan with. When nil the stored block
	// of the target is used unless IgnorePrior is set.
	Prior       *feedback.Block
	IgnorePrior bool
	SkipTests   bool
}

// Result bundles everything a run produced.
type Result struct {
	RunID        string
	TargetID     string
	Locator      string
	Commit       string
	Outline      outline.Outline
	Document     *document.Artifact
	TestStrategy *testsuite.Strategy
	Scorecard    *quality.Scorecard
	Block        *feedback.Block
	PriorUsed    bool
	Degraded     []section.Degradation
	Warnings     []string
	Transitions  []Transition
	Outcome      Outcome
	FailedStage  State
	Err          error
	Keys         []string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Orchestrator sequences the stages of a run.
type Orchestrator struct {
	stages   Stages
	store    store.ArtifactStore
	bus      *Bus
	recorder metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
	tests    bool
	html     bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBus publishes run events on b.
func WithBus(b *Bus) Option { return func(o *Orchestrator) { o.bus = b } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithRunIDs replaces the uuid run id generator.
func WithRunIDs(next func() string) Option { return func(o *Orchestrator) { o.newRunID = next } }

// WithTests enables or disables the test strategy stage.
func WithTests(enabled bool) Option { return func(o *Orchestrator) { o.tests = enabled } }

// WithHTML also persists an HTML rendering of the document.
func WithHTML(enabled bool) Option { return func(o *Orchestrator) { o.html = enabled } }

// New returns an Orchestrator writing to st.
func New(stages Stages, st store.ArtifactStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages:   stages,
		store:    st,
		bus:      NewBus(),
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
		now:      time.Now,
		newRunID: func() string { return uuid.NewString() },
		tests:    true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run carries the state of one Run call.
type run struct {
	o      *Orchestrator
	ctx    context.Context
	bg     context.Context
	res    *Result
	m      *machine
	logger *slog.Logger
}

// Run executes one pipeline pass. A fatal stage error or cancellation yields
// a Result with Outcome failed or canceled, a non-nil error, and no writes.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		RunID:     o.newRunID(),
		TargetID:  req.TargetID,
		Locator:   req.Locator,
		StartedAt: o.now(),
	}
	if res.TargetID == "" {
		res.TargetID = acquire.TargetID(req.Locator)
	}
	r := &run{
		o:      o,
		ctx:    ctx,
		bg:     context.WithoutCancel(ctx),
		res:    res,
		m:      &machine{now: o.now},
		logger: o.logger.With(logfields.RunID(res.RunID), logfields.Target(res.TargetID)),
	}
	r.publish(RunStarted{RunID: res.RunID, TargetID: res.TargetID, Locator: req.Locator, At: res.StartedAt})
	r.logger.Info("Run started", logfields.Locator(req.Locator))

	return r.execute(req)
}

func (r *run) execute(req Request) (*Result, error) {
	st := r.o.stages
	res := r.res

	// Ingesting: acquisition and snapshot are one stage.
	var snap *snapshot.Snapshot
	var co *acquire.Checkout
	if err := r.stage(StateIngesting, func() error {
		var err error
		co, err = st.Acquire(r.ctx, req.Locator)
		if err != nil {
			return err
		}
		res.Commit = co.Commit
		snap, err = st.Ingest(r.ctx, co.Dir)
		return err
	}); err != nil {
		r.release(co)
		return r.failed(StateIngesting, err)
	}
	defer r.release(co)

	title := co.Name
	if title == "" {
		title = snap.Name()
	}

	if err := r.stage(StatePlanning, func() error {
		prior := req.Prior
		if prior == nil && !req.IgnorePrior {
			prior = r.loadPrior()
		}
		res.PriorUsed = prior != nil
		res.Outline = st.Plan(snap, prior)
		return nil
	}); err != nil {
		return r.failed(StatePlanning, err)
	}

	var contents []section.Content
	if err := r.stage(StateGenerating, func() error {
		var err error
		contents, res.Degraded, err = st.Generate(r.ctx, res.Outline, snap)
		return err
	}); err != nil {
		return r.failed(StateGenerating, err)
	}
	for _, d := range res.Degraded {
		r.publish(SectionDegraded{RunID: res.RunID, Degradation: d})
	}

	if err := r.stage(StateAssembling, func() error {
		var err error
		res.Document, err = st.Assemble(res.Outline, contents, title)
		return err
	}); err != nil {
		return r.failed(StateAssembling, err)
	}

	if r.o.tests && !req.SkipTests && st.TestSuite != nil {
		if err := r.stage(StateTestGenerating, func() error {
			strategy, err := safeTestSuite(st.TestSuite, snap)
			if err != nil {
				r.warn(fmt.Sprintf("test strategy generation failed: %v", err))
				return nil
			}
			if strategy.Empty() {
				r.warn("no test strategy: " + strategy.Reason)
			}
			res.TestStrategy = &strategy
			return nil
		}); err != nil {
			return r.failed(StateTestGenerating, err)
		}
	}

	if err := r.stage(StateReviewing, func() error {
		card := st.Review(res.Document, snap)
		res.Scorecard = &card
		return nil
	}); err != nil {
		return r.failed(StateReviewing, err)
	}

	if err := r.stage(StateFeedingBack, func() error {
		block := st.Feedback(*res.Scorecard, res.TargetID, res.RunID, r.o.now())
		res.Block = &block
		if err := r.ctx.Err(); err != nil {
			return err
		}
		res.Outcome = OutcomeSuccess
		if len(res.Degraded) > 0 || len(res.Warnings) > 0 {
			res.Outcome = OutcomeDegraded
		}
		return r.persist()
	}); err != nil {
		return r.failed(StateFeedingBack, err)
	}

	_ = r.m.move(StateDone)
	return r.finish(nil)
}

// stage runs fn as state s. A canceled context between stages stops the run
// before fn is called.
func (r *run) stage(s State, fn func() error) error {
	if err := r.m.move(s); err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "invalid run transition").Build()
	}
	if err := r.ctx.Err(); err != nil {
		return err
	}
	start := r.o.now()
	err := fn()
	d := r.o.now().Sub(start)
	r.o.recorder.ObserveStageDuration(string(s), d)

	if err != nil {
		r.publish(StageFailed{RunID: r.res.RunID, Stage: s, Duration: d, Err: err})
		return err
	}
	result := metrics.ResultSuccess
	if s == StateGenerating && len(r.res.Degraded) > 0 {
		result = metrics.ResultDegraded
	}
	r.o.recorder.IncStageResult(string(s), result)
	r.publish(StageCompleted{RunID: r.res.RunID, Stage: s, Duration: d})
	r.logger.Debug("Stage completed", logfields.Stage(string(s)), logfields.DurationMS(float64(d.Microseconds())/1000))
	return nil
}

// failed ends the run in the failed state. Cancellation is reported as
// canceled regardless of the stage it interrupted.
func (r *run) failed(s State, err error) (*Result, error) {
	res := r.res
	res.FailedStage = s
	res.Outcome = OutcomeFailed
	result := metrics.ResultFatal

	if r.ctx.Err() != nil {
		res.Outcome = OutcomeCanceled
		result = metrics.ResultCanceled
		err = errors.WrapError(err, errors.CategoryCanceled, "run canceled").
			WithContext("stage", string(s)).
			Build()
	} else {
		err = classify(err, s)
	}
	r.o.recorder.IncStageResult(string(s), result)
	_ = r.m.move(StateFailed)
	res.Err = err
	r.logger.Error("Run failed", logfields.Stage(string(s)), logfields.Outcome(string(res.Outcome)), logfields.Error(err))
	return r.finish(err)
}

func classify(err error, s State) error {
	if ce, ok := errors.AsClassified(err); ok {
		return ce.WithContext("stage", string(s))
	}
	return errors.WrapError(err, errors.CategoryInternal, "stage failed").
		Fatal().
		WithContext("stage", string(s)).
		Build()
}

func (r *run) finish(err error) (*Result, error) {
	res := r.res
	res.FinishedAt = r.o.now()
	res.Transitions = append([]Transition(nil), r.m.log...)

	r.o.recorder.ObserveRunDuration(res.Duration())
	r.o.recorder.IncRunOutcome(string(res.Outcome))
	if res.Scorecard != nil && err == nil {
		for _, axis := range quality.Axes {
			r.o.recorder.SetQualityScore(res.TargetID, string(axis), res.Scorecard.Score(axis))
		}
	}
	r.publish(RunFinished{Result: res})

	if err == nil {
		attrs := []any{logfields.Outcome(string(res.Outcome)), logfields.DurationMS(float64(res.Duration().Milliseconds()))}
		if res.Scorecard != nil {
			attrs = append(attrs, logfields.Score(res.Scorecard.Overall))
		}
		r.logger.Info("Run finished", attrs...)
	}
	return res, err
}

func (r *run) warn(msg string) {
	r.res.Warnings = append(r.res.Warnings, msg)
	r.logger.Warn("Run degraded", slog.String("reason", msg))
}

func (r *run) publish(e Event) {
	if r.o.bus == nil {
		return
	}
	if err := r.o.bus.Publish(r.bg, e); err != nil {
		r.logger.Warn("Run event handler failed", slog.String("event", e.Name()), logfields.Error(err))
	}
}

func (r *run) release(co *acquire.Checkout) {
	if err := co.Release(); err != nil {
		r.logger.Warn("Failed to release checkout", logfields.Error(err))
	}
}

// loadPrior reads the target's stored regeneration block. Missing or
// unreadable blocks plan without feedback.
func (r *run) loadPrior() *feedback.Block {
	if r.o.store == nil {
		return nil
	}
	data, err := r.o.store.Get(r.ctx, store.Key(r.res.TargetID, store.BlockName))
	if err != nil {
		if !store.IsNotFound(err) {
			r.warn(fmt.Sprintf("could not read previous regeneration block: %v", err))
		}
		return nil
	}
	block, err := feedback.Unmarshal(data)
	if err != nil {
		r.warn(fmt.Sprintf("ignoring invalid regeneration block: %v", err))
		return nil
	}
	r.logger.Info("Planning with previous feedback", slog.Int("actions", len(block.Actions)), slog.String("prior_run", block.RunID))
	return block
}

// safeTestSuite turns a panicking strategy generator into a degradation.
func safeTestSuite(fn func(*snapshot.Snapshot) testsuite.Strategy, snap *snapshot.Snapshot) (s testsuite.Strategy, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(snap), nil
}
