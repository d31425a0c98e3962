// Package schedule runs documentation passes periodically.
package schedule

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
)

// RunFunc performs one pass over a target.
type RunFunc func(ctx context.Context, locator string) error

// Scheduler wraps a gocron scheduler. Jobs run in singleton mode: a tick that
// arrives while the previous pass of the same target is still running is
// skipped.
type Scheduler struct {
	scheduler gocron.Scheduler
	run       RunFunc
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// New returns a stopped Scheduler calling run for every tick.
func New(run RunFunc, logger *slog.Logger) (*Scheduler, error) {
	if run == nil {
		return nil, errors.ValidationError("run function is required").Build()
	}
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create scheduler").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{scheduler: s, run: run, logger: logger, ctx: ctx, cancel: cancel}, nil
}

// Every schedules locator every interval. When immediately is set the first
// pass starts as soon as the scheduler starts. Returns the job id.
func (s *Scheduler) Every(locator string, interval time.Duration, immediately bool) (string, error) {
	if interval <= 0 {
		return "", errors.ValidationError("schedule interval must be > 0").
			WithContext("interval", interval.String()).
			Build()
	}
	opts := []gocron.JobOption{
		gocron.WithName(locator),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}
	if immediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}
	job, err := s.scheduler.NewJob(gocron.DurationJob(interval), gocron.NewTask(s.execute, locator), opts...)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryValidation, "failed to schedule run").
			WithContext("locator", locator).
			Build()
	}
	s.logger.Info("Run scheduled", logfields.Locator(locator), slog.String("every", interval.String()))
	return job.ID().String(), nil
}

// Start begins executing jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting scheduler")
	s.scheduler.Start()
}

// Stop cancels running passes and waits for them to return.
func (s *Scheduler) Stop() error {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	return s.scheduler.Shutdown()
}

func (s *Scheduler) execute(locator string) {
	start := time.Now()
	err := s.run(s.ctx, locator)
	attrs := []any{logfields.Locator(locator), logfields.DurationMS(float64(time.Since(start).Milliseconds()))}
	if err != nil {
		s.logger.Error("Scheduled run failed", append(attrs, logfields.Error(err))...)
		return
	}
	s.logger.Info("Scheduled run finished", attrs...)
}
