package pipeline

import (
	"log/slog"

	"git.home.luguber.info/inful/repodoc/internal/feedback"
	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/store"
)

// artifact is one write of the run's output set. A nil data with remove set
// deletes whatever an earlier run left under the name.
type artifact struct {
	name   string
	data   []byte
	remove bool
}

// previous is the value a key held before the current batch touched it.
type previous struct {
	key     string
	data    []byte
	existed bool
}

// persist renders every artifact first and writes them only once all
// renderings succeeded. The regeneration block goes last so the next run
// never picks up feedback for a document that was not saved.
//
// Cancellation is honored up to the first write. From then on the batch runs
// on the detached context and either commits fully or is rolled back to the
// values the keys held before.
func (r *run) persist() error {
	if r.o.store == nil {
		return nil
	}
	res := r.res

	items := []artifact{{name: store.DocumentName, data: []byte(res.Document.Markdown())}}
	if r.o.html {
		html, err := res.Document.HTML()
		if err != nil {
			return err
		}
		items = append(items, artifact{name: store.HTMLName, data: html})
	} else {
		items = append(items, artifact{name: store.HTMLName, remove: true})
	}
	if res.TestStrategy != nil {
		y, err := res.TestStrategy.YAML()
		if err != nil {
			return errors.WrapError(err, errors.CategoryInternal, "failed to serialize test strategy").Build()
		}
		items = append(items, artifact{name: store.TestStrategyName, data: y})
	} else {
		items = append(items, artifact{name: store.TestStrategyName, remove: true})
	}
	block, err := feedback.Marshal(*res.Block)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to serialize regeneration block").Build()
	}

	keys := make([]string, 0, len(items)+3)
	for _, it := range items {
		if !it.remove {
			keys = append(keys, store.Key(res.TargetID, it.name))
		}
	}
	keys = append(keys,
		store.Key(res.TargetID, store.ReportName),
		store.Key(res.TargetID, store.BlockMarkdown),
		store.Key(res.TargetID, store.BlockName))
	res.Keys = keys

	items = append(items,
		artifact{name: store.ReportName, data: []byte(RenderReport(res))},
		artifact{name: store.BlockMarkdown, data: []byte(res.Block.Markdown())},
		artifact{name: store.BlockName, data: block})

	if err := r.ctx.Err(); err != nil {
		res.Keys = nil
		return err
	}
	if err := r.commit(items); err != nil {
		res.Keys = nil
		return err
	}
	return nil
}

func (r *run) commit(items []artifact) error {
	ctx := r.bg
	st := r.o.store
	done := make([]previous, 0, len(items))

	for _, it := range items {
		key := store.Key(r.res.TargetID, it.name)
		old, err := st.Get(ctx, key)
		if err != nil && !store.IsNotFound(err) {
			r.rollback(done)
			return err
		}
		existed := err == nil
		if it.remove && !existed {
			continue
		}
		done = append(done, previous{key: key, data: old, existed: existed})

		if it.remove {
			err = st.Delete(ctx, key)
		} else {
			err = st.Put(ctx, key, it.data)
		}
		if err != nil {
			r.rollback(done)
			return err
		}
		if it.remove {
			r.logger.Debug("Stale artifact removed", logfields.Key(key))
		} else {
			r.logger.Debug("Artifact written", logfields.Key(key))
		}
	}
	return nil
}

// rollback restores keys in reverse write order. Failures are logged; the
// original write error is what the run reports.
func (r *run) rollback(done []previous) {
	st := r.o.store
	for i := len(done) - 1; i >= 0; i-- {
		p := done[i]
		var err error
		if p.existed {
			err = st.Put(r.bg, p.key, p.data)
		} else {
			err = st.Delete(r.bg, p.key)
		}
		if err != nil {
			r.logger.Error("Artifact rollback failed", logfields.Key(p.key), logfields.Error(err))
		}
	}
	if len(done) > 0 {
		r.logger.Warn("Artifacts rolled back", slog.Int("count", len(done)))
	}
}
