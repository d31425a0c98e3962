// Package watch re-runs a callback when files under a local repository change.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/repodoc/internal/foundation/errors"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/snapshot"
)

// DefaultDebounce is the quiet window used when Options.Debounce is zero.
const DefaultDebounce = 2 * time.Second

// Options tunes a Watcher.
type Options struct {
	// Debounce is the quiet window after the last change before the callback runs.
	Debounce time.Duration
	// Ignore lists paths whose changes never trigger a run, typically the
	// output directory when it lives inside the repository.
	Ignore []string
}

// Watcher coalesces bursts of file changes under root into single callbacks.
type Watcher struct {
	root    string
	opts    Options
	fsw     *fsnotify.Watcher
	logger  *slog.Logger
	ignore  []string
	ready   chan struct{}
	readyMu sync.Once
}

// New watches root and every directory below it except the ones snapshots skip.
func New(root string, opts Options, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryValidation, "failed to resolve watch root").Build()
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, errors.ValidationError("watch root must be an existing directory").
			WithContext("path", root).
			Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create file watcher").Build()
	}

	w := &Watcher{root: abs, opts: opts, fsw: fsw, logger: logger, ready: make(chan struct{})}
	for _, p := range opts.Ignore {
		if a, err := filepath.Abs(p); err == nil {
			w.ignore = append(w.ignore, a)
		}
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Ready is closed once Run is consuming events.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run calls fn after every debounced burst of changes until ctx is done. fn
// runs on the event loop, so changes made while it runs coalesce into at most
// one follow-up call.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context)) error {
	defer func() { _ = w.fsw.Close() }()
	w.logger.Info("Watching repository", logfields.Path(w.root), slog.String("debounce", w.opts.Debounce.String()))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	var fire <-chan time.Time
	w.readyMu.Do(func() { close(w.ready) })

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("Failed to watch new directory", logfields.Path(ev.Name), logfields.Error(err))
					}
				}
			}
			w.logger.Debug("Change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			timer.Reset(w.opts.Debounce)
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("File watcher error", logfields.Error(err))
		case <-fire:
			fire = nil
			fn(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if w.ignored(ev.Name) {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if snapshot.SkipDir(part) {
			return false
		}
	}
	return true
}

func (w *Watcher) ignored(p string) bool {
	for _, ig := range w.ignore {
		if p == ig || strings.HasPrefix(p, ig+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && (snapshot.SkipDir(d.Name()) || w.ignored(p)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch directory").
				WithContext("path", p).
				Build()
		}
		return nil
	})
}
