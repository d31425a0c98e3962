package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"git.home.luguber.info/inful/repodoc/internal/acquire"
	"git.home.luguber.info/inful/repodoc/internal/document"
	"git.home.luguber.info/inful/repodoc/internal/feedback"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/review"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
	"git.home.luguber.info/inful/repodoc/internal/store"
)

// ReviewCmd implements the 'review' command: it scores an existing document
// without generating anything.
type ReviewCmd struct {
	Document string `arg:"" type:"existingfile" help:"Markdown document to score"`
	Locator  string `arg:"" help:"Repository the document describes"`
	Save     bool   `help:"Store the regeneration block so the next run plans with it"`
}

func (r *ReviewCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	ctx := context.Background()

	data, err := os.ReadFile(r.Document)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read document").
			WithContext("path", r.Document).
			Build()
	}
	doc, err := document.Parse(string(data))
	if err != nil {
		return err
	}

	co, err := acquire.New(cfg.Acquire, nil, g.Logger).Acquire(ctx, r.Locator)
	if err != nil {
		return err
	}
	defer func() {
		if err := co.Release(); err != nil {
			g.Logger.Warn("Failed to release checkout", logfields.Error(err))
		}
	}()
	snap, err := snapshot.NewBuilder(cfg.Pipeline.MaxFileSizeBytes).Build(ctx, co.Dir)
	if err != nil {
		return err
	}

	card := review.NewReviewer(review.PolicyFromConfig(cfg.Pipeline, cfg.Review)).Review(doc, snap)
	block := feedback.Build(card, co.TargetID, "", time.Now())
	fmt.Fprintln(g.Out, boxStyle.Render(headStyle.Render("review: "+co.TargetID)+"\n"+RenderScorecard(card)))
	fmt.Fprintln(g.Out, block.Markdown())

	if !r.Save {
		return nil
	}
	st, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	raw, err := feedback.Marshal(block)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to serialize regeneration block").Build()
	}
	key := store.Key(co.TargetID, store.BlockName)
	if err := st.Put(ctx, key, raw); err != nil {
		return err
	}
	g.Logger.Info("Regeneration block stored", logfields.Key(key), slog.Int("actions", len(block.Actions)))
	return nil
}
