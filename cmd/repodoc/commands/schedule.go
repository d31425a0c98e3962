package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/pipeline"
	"git.home.luguber.info/inful/repodoc/internal/schedule"
)

// ScheduleCmd implements the 'schedule' command.
type ScheduleCmd struct {
	Locators    []string      `arg:"" help:"Repositories to regenerate"`
	Every       time.Duration `help:"Interval between runs; defaults to schedule.interval"`
	NoImmediate bool          `name:"no-immediate" help:"Wait one interval before the first run"`
}

func (s *ScheduleCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	interval := s.Every
	if interval == 0 {
		if interval, err = cfg.Schedule.ScheduleInterval(); err != nil {
			return errors.WrapError(err, errors.CategoryConfig, "invalid schedule interval").Build()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := root.NewRuntime(ctx, g, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	sch, err := schedule.New(func(ctx context.Context, locator string) error {
		res, err := rt.Orchestrator.Run(ctx, pipeline.Request{Locator: locator})
		if res != nil {
			g.Logger.Info("Scheduled run summary",
				logfields.Target(res.TargetID),
				logfields.Outcome(string(res.Outcome)),
				logfields.Score(overallOf(res)))
		}
		return err
	}, g.Logger)
	if err != nil {
		return err
	}
	for _, loc := range s.Locators {
		if _, err := sch.Every(loc, interval, !s.NoImmediate); err != nil {
			_ = sch.Stop()
			return err
		}
	}
	sch.Start()
	<-ctx.Done()
	return sch.Stop()
}

func overallOf(res *pipeline.Result) int {
	if res.Scorecard == nil {
		return 0
	}
	return res.Scorecard.Overall
}
