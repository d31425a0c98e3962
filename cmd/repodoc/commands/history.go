package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Target string `arg:"" optional:"" help:"Target id; every target when empty"`
	Limit  int    `short:"n" default:"20" help:"Maximum number of runs"`
	RunID  string `name:"run" help:"Show the events of one run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		return errors.ConfigError("run history is disabled (history.enabled)").Build()
	}
	hs, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = hs.Close() }()
	ctx := context.Background()

	if h.RunID != "" {
		events, err := hs.Events(ctx, h.RunID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return errors.NewError(errors.CategoryNotFound, "run not found").WithContext("run_id", h.RunID).Build()
		}
		for _, e := range events {
			fmt.Fprintf(g.Out, "%s  %-16s %s\n", e.Timestamp.Local().Format("15:04:05.000"), e.Type, mutedStyle.Render(string(e.Payload)))
		}
		return nil
	}

	runs, err := hs.Runs(ctx, h.Target, h.Limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(g.Out, RenderRuns(runs))
	return nil
}
