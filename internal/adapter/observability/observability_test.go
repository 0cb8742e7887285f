package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-interview-analyzer/internal/config"
)

func TestSetupLoggerDevLevel(t *testing.T) {
	logger := SetupLogger(config.Config{AppEnv: "dev", OTELServiceName: "svc"})
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestSetupTracingDisabledWithoutEndpoint(t *testing.T) {
	shutdown, err := SetupTracing(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestHTTPMetricsMiddlewareRecords(t *testing.T) {
	before := testutil.CollectAndCount(HTTPRequestsTotal)

	h := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/probe", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Greater(t, testutil.CollectAndCount(HTTPRequestsTotal), before)
}

func TestJobGauges(t *testing.T) {
	StartProcessingJob("analyze_gauge_test")
	assert.Equal(t, 1.0, testutil.ToFloat64(JobsProcessing.WithLabelValues("analyze_gauge_test")))
	CompleteJob("analyze_gauge_test")
	assert.Equal(t, 0.0, testutil.ToFloat64(JobsProcessing.WithLabelValues("analyze_gauge_test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(JobsCompletedTotal.WithLabelValues("analyze_gauge_test")))
}

func histogramSamples(t *testing.T, h prometheus.Histogram) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, h.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestObserveAnalysisScoresDropsOutOfRange(t *testing.T) {
	videoBefore := histogramSamples(t, VideoConfidenceHistogram)
	audioBefore := histogramSamples(t, AudioClarityHistogram)

	ObserveAnalysisScores(0, 42) // both out of range
	assert.Equal(t, videoBefore, histogramSamples(t, VideoConfidenceHistogram))
	assert.Equal(t, audioBefore, histogramSamples(t, AudioClarityHistogram))

	ObserveAnalysisScores(8.2, 6.5)
	assert.Equal(t, videoBefore+1, histogramSamples(t, VideoConfidenceHistogram))
	assert.Equal(t, audioBefore+1, histogramSamples(t, AudioClarityHistogram))
}

func TestScoreDriftMonitor(t *testing.T) {
	m := NewScoreDriftMonitor(3, 5)
	m.SetBaseline("overall", 80)

	for _, s := range []float64{70, 70, 70} {
		m.Record("overall", s)
	}
	assert.Equal(t, 10.0, testutil.ToFloat64(ScoreDriftGauge.WithLabelValues("overall")))
}

func TestScoreDriftFirstWindowBecomesBaseline(t *testing.T) {
	m := NewScoreDriftMonitor(2, 5)
	m.Record("content", 60)
	m.Record("content", 62)
	// Window full with no explicit baseline: 61 becomes the reference.
	m.Record("content", 62)
	m.Record("content", 64)
	assert.InDelta(t, 2.0, testutil.ToFloat64(ScoreDriftGauge.WithLabelValues("content")), 1e-9)
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("llm", 2, 10*time.Millisecond)
	boom := errors.New("boom")

	require.Error(t, cb.Call(func() error { return boom }))
	require.Error(t, cb.Call(func() error { return boom }))
	assert.Equal(t, StateOpen, cb.State())

	err := cb.Call(func() error { return nil })
	var open ErrCircuitOpen
	require.ErrorAs(t, err, &open)
	assert.Equal(t, "llm", open.Name)

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())
	for range [halfOpenProbes]struct{}{} {
		require.NoError(t, cb.Call(func() error { return nil }))
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("stt", 1, 5*time.Millisecond)
	require.Error(t, cb.Call(func() error { return errors.New("x") }))
	time.Sleep(10 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())
	require.Error(t, cb.Call(func() error { return errors.New("x") }))
	assert.Equal(t, StateOpen, cb.State())
}
