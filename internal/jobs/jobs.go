// Package jobs runs periodic housekeeping: dropping idle simulation
// sessions and pruning old LLM request events.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/kalike-app/kalike/internal/observability"
	"github.com/kalike-app/kalike/internal/platform/envutil"
	"github.com/kalike-app/kalike/internal/platform/logger"
)

const (
	DefaultSweepInterval = time.Minute
	DefaultRetention     = 30 * 24 * time.Hour
	DefaultPruneAt       = "03:00"
)

// SessionSweeper drops expired sessions.
type SessionSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// EventPruner deletes LLM events recorded before cutoff.
type EventPruner interface {
	PruneLLMEvents(ctx context.Context, cutoff time.Time) (int64, error)
}

type Config struct {
	SweepInterval time.Duration
	// Retention is how long LLM events are kept. Zero disables pruning.
	Retention time.Duration
	// PruneAt is the daily UTC time of the prune run, as HH:MM.
	PruneAt string
}

func ConfigFromEnv() Config {
	return Config{
		SweepInterval: envutil.Duration("KALIKE_SESSION_SWEEP_INTERVAL", DefaultSweepInterval),
		Retention:     envutil.Duration("KALIKE_LLM_EVENT_RETENTION", DefaultRetention),
		PruneAt:       envutil.String("KALIKE_LLM_EVENT_PRUNE_AT", DefaultPruneAt),
	}
}

// Scheduler owns the gocron scheduler and the housekeeping tasks.
type Scheduler struct {
	cron     *gocron.Scheduler
	cfg      Config
	sessions SessionSweeper
	events   EventPruner
	metrics  *observability.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// New builds a scheduler. sessions or events may be nil to skip that
// task.
func New(cfg Config, sessions SessionSweeper, events EventPruner, m *observability.Metrics, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	if cfg.PruneAt == "" {
		cfg.PruneAt = DefaultPruneAt
	}
	cron := gocron.NewScheduler(time.UTC)
	cron.SingletonModeAll()
	return &Scheduler{
		cron:     cron,
		cfg:      cfg,
		sessions: sessions,
		events:   events,
		metrics:  m,
		log:      log.With("component", "jobs"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Start registers the tasks and runs them in the background until ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.sessions != nil {
		if _, err := s.cron.Every(s.cfg.SweepInterval).Do(s.SweepSessions, ctx); err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}
	if s.events != nil && s.cfg.Retention > 0 {
		if _, err := s.cron.Every(1).Day().At(s.cfg.PruneAt).Do(s.PruneEvents, ctx); err != nil {
			return fmt.Errorf("schedule event pruning: %w", err)
		}
	}
	s.cron.StartAsync()
	s.log.Info("jobs started", "jobs", len(s.cron.Jobs()), "sweep_interval", s.cfg.SweepInterval.String())

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) Stop() {
	if s.cron.IsRunning() {
		s.cron.Stop()
		s.log.Info("jobs stopped")
	}
}

// SweepSessions drops expired sessions once.
func (s *Scheduler) SweepSessions(ctx context.Context) {
	n, err := s.sessions.Sweep(ctx)
	if err != nil {
		s.log.Warn("session sweep failed", "error", err)
		return
	}
	s.metrics.SessionsSwept(n)
	if n > 0 {
		s.log.Info("expired sessions swept", "count", n)
	}
}

// PruneEvents deletes LLM events older than the retention window once.
func (s *Scheduler) PruneEvents(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.Retention)
	n, err := s.events.PruneLLMEvents(ctx, cutoff)
	if err != nil {
		s.log.Warn("llm event pruning failed", "error", err)
		return
	}
	s.metrics.EventsPruned(n)
	s.log.Info("llm events pruned", "count", n, "cutoff", cutoff.Format(time.RFC3339))
}
