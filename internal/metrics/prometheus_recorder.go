package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration      *prom.HistogramVec
	stageResults       *prom.CounterVec
	runDuration        prom.Histogram
	runOutcomes        *prom.CounterVec
	generationCalls    *prom.CounterVec
	generationRetries  *prom.CounterVec
	generationAttempts *prom.HistogramVec
	qualityScores      *prom.GaugeVec
}

// NewPrometheusRecorder constructs the metrics under namespace and registers them with reg.
func NewPrometheusRecorder(reg prom.Registerer, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = "repodoc"
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total pipeline run duration",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		runOutcomes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Pipeline runs by final outcome",
		}, []string{"outcome"}),
		generationCalls: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generation_calls_total",
			Help:      "Generation calls by terminal state",
		}, []string{"state"}),
		generationRetries: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "generation_retries_total",
			Help:      "Generation retries by error kind",
		}, []string{"kind"}),
		generationAttempts: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_attempts",
			Help:      "Attempts needed per section",
			Buckets:   []float64{1, 2, 3, 4, 6, 8},
		}, []string{"section"}),
		qualityScores: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Latest review score per target and axis",
		}, []string{"target", "axis"}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcomes,
		pr.generationCalls, pr.generationRetries, pr.generationAttempts, pr.qualityScores)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	p.runOutcomes.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncGenerationCall(state string) {
	p.generationCalls.WithLabelValues(state).Inc()
}

func (p *PrometheusRecorder) IncGenerationRetry(kind string) {
	p.generationRetries.WithLabelValues(kind).Inc()
}

func (p *PrometheusRecorder) ObserveGenerationAttempts(section string, attempts int) {
	p.generationAttempts.WithLabelValues(section).Observe(float64(attempts))
}

func (p *PrometheusRecorder) SetQualityScore(target, axis string, score int) {
	p.qualityScores.WithLabelValues(target, axis).Set(float64(score))
}

// HTTPHandler returns an http.Handler that serves the metrics gathered by g.
func HTTPHandler(g prom.Gatherer) http.Handler {
	if g == nil {
		g = prom.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
