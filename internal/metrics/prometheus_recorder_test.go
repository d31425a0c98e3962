package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	r := NewPrometheusRecorder(reg, "repodoc_test")

	r.ObserveStageDuration("planning", 20*time.Millisecond)
	r.IncStageResult("planning", ResultSuccess)
	r.IncStageResult("generating", ResultDegraded)
	r.IncRunOutcome("degraded")
	r.IncGenerationCall("succeeded")
	r.IncGenerationCall("succeeded")
	r.IncGenerationRetry("rate_limited")
	r.ObserveGenerationAttempts("usage", 2)
	r.ObserveRunDuration(3 * time.Second)
	r.SetQualityScore("acme_widget", "clarity", 64)

	require.Equal(t, 2.0, testutil.ToFloat64(r.generationCalls.WithLabelValues("succeeded")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.stageResults.WithLabelValues("generating", "degraded")))
	require.Equal(t, 64.0, testutil.ToFloat64(r.qualityScores.WithLabelValues("acme_widget", "clarity")))

	srv := httptest.NewServer(HTTPHandler(reg))
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	buf := new(strings.Builder)
	_, err = io.Copy(buf, resp.Body)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "repodoc_test_run_outcomes_total")
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncRunOutcome("success")
	r.ObserveStageDuration("x", time.Second)
}
