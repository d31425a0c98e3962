package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/pipeline"
)

// RunCmd implements the 'run' command.
type RunCmd struct {
	Locator        string `arg:"" help:"Repository URL or local directory"`
	NoTests        bool   `name:"no-tests" help:"Skip the test strategy"`
	HTML           bool   `help:"Also write an HTML rendering of the README"`
	Output         string `short:"o" help:"Output directory for the filesystem store"`
	IgnoreFeedback bool   `name:"ignore-feedback" help:"Plan without the stored regeneration block"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	r.apply(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := root.NewRuntime(ctx, g, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.Orchestrator.Run(ctx, pipeline.Request{Locator: r.Locator, IgnorePrior: r.IgnoreFeedback})
	if res != nil {
		fmt.Fprintln(g.Out, RenderSummary(res))
	}
	return err
}

func (r *RunCmd) apply(cfg *config.Config) {
	if r.Output != "" {
		cfg.Output.Directory = r.Output
	}
	if r.HTML {
		cfg.Output.HTML = true
	}
	if r.NoTests {
		cfg.Pipeline.GenerateTests = false
	}
}
