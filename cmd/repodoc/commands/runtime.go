package commands

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/repodoc/internal/config"
	"git.home.luguber.info/inful/repodoc/internal/generation"
	"git.home.luguber.info/inful/repodoc/internal/history"
	"git.home.luguber.info/inful/repodoc/internal/logfields"
	"git.home.luguber.info/inful/repodoc/internal/metrics"
	"git.home.luguber.info/inful/repodoc/internal/pipeline"
	"git.home.luguber.info/inful/repodoc/internal/store"
)

// Runtime holds the long-lived components a pipeline command needs.
type Runtime struct {
	Config       *config.Config
	Logger       *slog.Logger
	Store        store.ArtifactStore
	History      *history.SQLiteStore
	Orchestrator *pipeline.Orchestrator

	closers []func() error
}

// NewRuntime wires the generation service, artifact store, history, metrics
// and event sinks from cfg. svc overrides the configured provider when set.
func (c *CLI) NewRuntime(ctx context.Context, g *Global, cfg *config.Config, svc generation.Service) (*Runtime, error) {
	rt := &Runtime{Config: cfg, Logger: g.Logger}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	if svc == nil {
		var err error
		if svc, err = generation.New(ctx, cfg.Generation, g.Logger); err != nil {
			return nil, err
		}
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if addr := c.metricsAddr(cfg); addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(reg, cfg.Metrics.Namespace)
		rt.serveMetrics(addr, reg)
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rt.Store = st
	rt.closers = append(rt.closers, st.Close)

	bus := pipeline.NewBus()
	if cfg.History.Enabled {
		h, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		rt.History = h
		rt.closers = append(rt.closers, h.Close)
		bus.SubscribeAll(pipeline.HistorySink(h))
	}
	if pub, isPub := st.(store.Publisher); isPub {
		bus.Subscribe(pipeline.EventRunFinished, pipeline.PublisherSink(pub))
	}

	rt.Orchestrator = pipeline.New(
		pipeline.DefaultStages(cfg, svc, g.Logger, recorder),
		st,
		pipeline.WithBus(bus),
		pipeline.WithRecorder(recorder),
		pipeline.WithLogger(g.Logger),
		pipeline.WithTests(cfg.Pipeline.GenerateTests),
		pipeline.WithHTML(cfg.Output.HTML),
	)
	ok = true
	return rt, nil
}

func (c *CLI) metricsAddr(cfg *config.Config) string {
	if c.MetricsAddr != "" {
		return c.MetricsAddr
	}
	if cfg.Metrics.Enabled {
		return cfg.Metrics.Addr
	}
	return ""
}

func (rt *Runtime) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			rt.Logger.Error("Metrics server failed", logfields.Error(err))
		}
	}()
	rt.Logger.Info("Serving metrics", slog.String("addr", addr))
	rt.closers = append(rt.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// Close releases everything in reverse order of acquisition.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.Logger.Warn("Failed to close component", logfields.Error(err))
		}
	}
	rt.closers = nil
}

// Ignored lists local paths written by runs, so watchers can skip them.
func (rt *Runtime) Ignored() []string {
	var out []string
	if rt.Config.Store.Backend == config.StoreFS && rt.Config.Output.Directory != "" {
		out = append(out, rt.Config.Output.Directory)
	}
	if rt.History != nil && rt.Config.History.Path != ":memory:" {
		if dir := filepath.Dir(rt.Config.History.Path); dir != "." {
			out = append(out, dir)
		}
	}
	return out
}
