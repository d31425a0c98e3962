package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/pipeline"
	"git.home.luguber.info/inful/repodoc/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Dir      string        `arg:"" type:"existingdir" help:"Local repository to watch"`
	Debounce time.Duration `default:"2s" help:"Quiet window after the last change"`
	NoTests  bool          `name:"no-tests" help:"Skip the test strategy"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if w.NoTests {
		cfg.Pipeline.GenerateTests = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := root.NewRuntime(ctx, g, cfg, nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	watcher, err := watch.New(w.Dir, watch.Options{Debounce: w.Debounce, Ignore: rt.Ignored()}, g.Logger)
	if err != nil {
		return err
	}
	runOnce := func(ctx context.Context) {
		res, err := rt.Orchestrator.Run(ctx, pipeline.Request{Locator: w.Dir})
		if res != nil {
			fmt.Fprintln(g.Out, RenderSummary(res))
		}
		if err != nil && ctx.Err() == nil {
			g.Logger.Error("Run failed", logfields.Error(err))
		}
	}
	runOnce(ctx)
	return watcher.Run(ctx, runOnce)
}
