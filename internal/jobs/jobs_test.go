package jobs

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kalike-app/kalike/internal/observability"
	"github.com/kalike-app/kalike/internal/sessions"
	"github.com/kalike-app/kalike/internal/simulation"
)

type countingSweeper struct {
	calls atomic.Int32
	n     int
	err   error
}

func (c *countingSweeper) Sweep(context.Context) (int, error) {
	c.calls.Add(1)
	return c.n, c.err
}

type recordingPruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
}

func (r *recordingPruner) PruneLLMEvents(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.n, nil
}

func TestPruneEventsUsesRetention(t *testing.T) {
	p := &recordingPruner{n: 12}
	m := observability.NewMetrics()
	s := New(Config{Retention: 7 * 24 * time.Hour}, nil, p, m, nil)
	now := time.Date(2026, 5, 20, 3, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	s.PruneEvents(context.Background())

	require.Len(t, p.cutoffs, 1)
	assert.Equal(t, now.AddDate(0, 0, -7), p.cutoffs[0])
	body := scrape(t, m)
	assert.Contains(t, body, "kalike_llm_events_pruned_total 12")
}

func TestSweepSessionsDropsExpired(t *testing.T) {
	store := sessions.NewMemoryStore(time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, simulation.Session{ID: "a", ScenarioID: "auto_driver_sim"}))
	require.NoError(t, store.Create(ctx, simulation.Session{ID: "b", ScenarioID: "auto_driver_sim"}))
	time.Sleep(5 * time.Millisecond)

	m := observability.NewMetrics()
	New(Config{}, store, nil, m, nil).SweepSessions(ctx)

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, sessions.ErrNotFound)
	assert.Zero(t, store.Len())
	assert.Contains(t, scrape(t, m), "kalike_simulation_sessions_expired_total 2")
}

func TestSweepFailureIsNotCounted(t *testing.T) {
	sw := &countingSweeper{n: 4, err: errors.New("redis down")}
	m := observability.NewMetrics()
	New(Config{}, sw, nil, m, nil).SweepSessions(context.Background())
	assert.Equal(t, int32(1), sw.calls.Load())
	assert.Contains(t, scrape(t, m), "kalike_simulation_sessions_expired_total 0")
}

func TestStartRunsSweepsUntilCancelled(t *testing.T) {
	sw := &countingSweeper{}
	s := New(Config{SweepInterval: 20 * time.Millisecond}, sw, nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.Eventually(t, func() bool { return sw.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.Eventually(t, func() bool { return !s.cron.IsRunning() }, time.Second, 10*time.Millisecond)
}

func TestStartSkipsPruningWithoutRetention(t *testing.T) {
	s := New(Config{}, nil, &recordingPruner{}, nil, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Empty(t, s.cron.Jobs())
}

func scrape(t *testing.T, m *observability.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	return rec.Body.String()
}
