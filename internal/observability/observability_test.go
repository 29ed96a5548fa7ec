package observability

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalike-app/kalike/internal/llm"
)

func TestMetricsHandlerExposesCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/tracks", 200, 15*time.Millisecond)
	m.ObserveTurn("auto_driver_sim", "ok")
	m.ObserveLesson(true, []string{"first_lesson"})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, string(body), `kalike_http_requests_total{method="GET",route="/api/tracks",status="200"} 1`)
	assert.Contains(t, string(body), `kalike_simulation_turns_total{result="ok",scenario="auto_driver_sim"} 1`)
	assert.Contains(t, string(body), `kalike_achievements_unlocked_total{achievement="first_lesson"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNilMetricsIgnoresObservations(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAPI("GET", "/", 200, time.Millisecond)
		m.APIInflightInc()
		m.APIInflightDec()
		m.ObserveLLM("x", true, time.Second, 1, 1)
		m.ObserveTurn("s", "ok")
		m.ObserveSimulationScore("s", 80)
		m.ObserveLesson(false, nil)
		m.SessionsSwept(3)
		m.EventsPruned(3)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestInstrumentProvider(t *testing.T) {
	m := NewMetrics()
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`"ನಮಸ್ಕಾರ"`),
		Usage:   llm.Usage{InputTokens: 12, OutputTokens: 5},
	})
	p := InstrumentProvider(mock, m)
	assert.Equal(t, "mock", p.ModelID())

	ctx := llm.WithPurpose(context.Background(), llm.PurposeSimulationReply)
	_, err := p.Generate(ctx, llm.Request{Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	_, err = p.Generate(ctx, llm.Request{})
	require.Error(t, err, "empty mock queue fails")

	purpose := llm.PurposeSimulationReply
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues(purpose, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRequests.WithLabelValues(purpose, "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.llmTokens.WithLabelValues(purpose, "input")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.llmTokens.WithLabelValues(purpose, "output")))
}

func TestJobCounters(t *testing.T) {
	m := NewMetrics()
	m.SessionsSwept(2)
	m.SessionsSwept(0)
	m.EventsPruned(7)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsSwept))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.eventsPruned))
}

func TestParseHeaders(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "1", "b": "x=y"}, parseHeaders(" a=1, b = x=y ,bad, =v, k="))
	assert.Nil(t, parseHeaders(""))
}

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("KALIKE_OTEL_ENABLED", "true")
	t.Setenv("KALIKE_OTEL_SAMPLE_PERCENT", "25")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "x-api-key=abc")

	cfg := TracingConfigFromEnv("1.2.3")
	assert.True(t, cfg.Enabled)
	assert.InDelta(t, 0.25, cfg.SampleRatio, 1e-9)
	assert.Equal(t, "collector:4318", cfg.Endpoint)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, map[string]string{"x-api-key": "abc"}, cfg.Headers)
}

func TestInitTracingDisabledIsNoop(t *testing.T) {
	shutdown := InitTracing(context.Background(), nil, TracingConfig{})
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}
