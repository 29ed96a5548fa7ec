// Package app assembles the server and the terminal rehearsal from their
// configured collaborators.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalike-app/kalike/internal/catalog"
	"github.com/kalike-app/kalike/internal/game"
	"github.com/kalike-app/kalike/internal/httpapi"
	"github.com/kalike-app/kalike/internal/jobs"
	"github.com/kalike-app/kalike/internal/llm"
	"github.com/kalike-app/kalike/internal/observability"
	"github.com/kalike-app/kalike/internal/platform/envutil"
	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/sessions"
	"github.com/kalike-app/kalike/internal/simulation"
	"github.com/kalike-app/kalike/internal/speech"
	"github.com/kalike-app/kalike/internal/store"
	"github.com/kalike-app/kalike/internal/voice"
)

const (
	// DefaultAddr is the listen address when neither --addr nor
	// KALIKE_ADDR is set.
	DefaultAddr = ":8000"

	defaultSynthCacheSize = 512
	defaultSynthCacheTTL  = 24 * time.Hour
)

// Options locate the inputs of a run. Empty catalog paths select the
// embedded documents.
type Options struct {
	DBPath      string
	CatalogPath string
	TracksPath  string
	Version     string
}

// App owns the long-lived collaborators of the HTTP server.
type App struct {
	Log        *logger.Logger
	Store      *store.Store
	Catalog    *catalog.Catalog
	Metrics    *observability.Metrics
	Provider   llm.Provider
	Controller *simulation.Controller
	Game       *game.Service
	Sessions   sessions.Store
	Rooms      *voice.Rooms

	version string
	deps    httpapi.Deps
	closers []func() error
}

// New opens the store and builds every collaborator. Missing optional
// providers are logged and leave their routes answering 503; a missing
// LLM provider makes replies fall back to the scenario's stock lines.
func New(ctx context.Context, opts Options, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Log: log, version: opts.Version, Metrics: observability.NewMetrics()}

	cat, err := catalog.Load(opts.CatalogPath, opts.TracksPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	a.Catalog = cat

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.Store = st
	a.closers = append(a.closers, st.Close)

	a.Provider = observability.InstrumentProvider(newProvider(ctx, st.EventRepo(), log), a.Metrics)

	rdb, err := connectRedis(ctx, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
	}

	speechCfg := speech.ConfigFromEnv()
	stt, err := speech.NewTranscriber(ctx, speechCfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("speech-to-text: %w", err)
	}
	if c, ok := stt.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}
	synth := newSynthesizer(speechCfg, rdb, log)
	filter := speech.NewKeywordFilter(cat.Filter.BlockedWords, stt, log)

	collab := simulation.Collaborators{
		Transcriber: stt,
		Replies:     simulation.NewLLMReplies(a.Provider),
		Filter:      filter,
	}
	if synth != nil {
		collab.Synthesizer = synth
	}
	a.Controller, err = simulation.NewController(cat.Scenarios, collab, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("simulation controller: %w", err)
	}

	ttl := envutil.Duration("KALIKE_SESSION_TTL", sessions.DefaultTTL)
	if rdb != nil {
		a.Sessions = sessions.NewRedisStore(rdb, ttl)
	} else {
		a.Sessions = sessions.NewMemoryStore(ttl)
	}

	a.Game = game.NewService(cat.Engine, game.Config{
		CompletionThreshold: cat.Thresholds.LessonCompletion,
		HighScoreThreshold:  cat.Thresholds.HighScoreSimulation,
	}, game.Repos{
		Users:       st.UserRepo(),
		Progress:    st.LessonProgressRepo(),
		Simulations: st.SimulationRepo(),
		Events:      st.EventRepo(),
	}, cat.Library, log)

	a.Rooms = voice.NewRooms(voice.ConfigFromEnv(), log)
	if !a.Rooms.Enabled() {
		log.Info("voice rooms disabled, LiveKit credentials not set")
	}

	a.deps = httpapi.Deps{
		Log:           log,
		Metrics:       a.Metrics,
		Version:       opts.Version,
		Origins:       splitList(envutil.String("KALIKE_CORS_ORIGINS", "")),
		MaxAudio:      int64(envutil.Int("KALIKE_MAX_AUDIO_BYTES", httpapi.DefaultMaxAudioBytes)),
		Library:       cat.Library,
		Game:          a.Game,
		Controller:    a.Controller,
		Sessions:      a.Sessions,
		Transcriber:   stt,
		Pronunciation: speech.NewPronunciationEvaluator(stt, a.Provider, log),
		Filter:        filter,
		Voice:         a.Rooms,
	}
	if synth != nil {
		a.deps.Synthesizer = synth
	}
	return a, nil
}

// Deps returns the HTTP dependencies built by New.
func (a *App) Deps() httpapi.Deps { return a.deps }

// Serve runs tracing, the background jobs and the HTTP server until ctx
// is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	shutdown := observability.InitTracing(ctx, a.Log, observability.TracingConfigFromEnv(a.version))
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			a.Log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	sched := jobs.New(jobs.ConfigFromEnv(), a.Sessions, a.Store.EventRepo(), a.Metrics, a.Log)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	defer sched.Stop()

	return httpapi.NewServer(a.deps).Run(ctx, addr)
}

// Close releases the store, redis client and speech clients.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewRehearsal builds a controller for typed conversations: lines pass
// straight through as transcripts and nothing is synthesized. LLM calls
// are still recorded in the store. The returned func closes the store.
func NewRehearsal(ctx context.Context, opts Options, log *logger.Logger) (*simulation.Controller, func() error, error) {
	if log == nil {
		log = logger.Nop()
	}
	cat, err := catalog.Load(opts.CatalogPath, opts.TracksPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load catalog: %w", err)
	}
	st, err := store.Open(opts.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	stt := speech.PassThrough{}
	ctrl, err := simulation.NewController(cat.Scenarios, simulation.Collaborators{
		Transcriber: stt,
		Replies:     simulation.NewLLMReplies(newProvider(ctx, st.EventRepo(), log)),
		Filter:      speech.NewKeywordFilter(cat.Filter.BlockedWords, stt, log),
	}, log)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("simulation controller: %w", err)
	}
	return ctrl, st.Close, nil
}

// newProvider builds the configured LLM provider, or an empty mock whose
// every call fails so the controller uses its fallback lines.
func newProvider(ctx context.Context, events store.EventRepo, log *logger.Logger) llm.Provider {
	p, err := llm.NewProviderFromEnv(ctx, events, log)
	if err != nil {
		log.Warn("LLM provider not configured, replies use fallback lines", "error", err)
		return llm.NewMockProvider()
	}
	return p
}

// newSynthesizer returns nil when no OpenAI key is available. Results are
// cached in redis when connected, otherwise in process memory.
func newSynthesizer(cfg speech.Config, rdb *redis.Client, log *logger.Logger) *speech.CachedSynthesizer {
	tts, err := speech.NewOpenAISynthesizer(cfg, log)
	if err != nil {
		log.Warn("speech synthesis disabled", "error", err)
		return nil
	}
	var cache speech.Cache = speech.NewMemoryCache(defaultSynthCacheSize)
	if rdb != nil {
		cache = speech.NewRedisCache(rdb, envutil.Duration("KALIKE_TTS_CACHE_TTL", defaultSynthCacheTTL))
	}
	return speech.NewCachedSynthesizer(tts, cache, log)
}

// connectRedis dials KALIKE_REDIS_ADDR. It returns nil without an address.
func connectRedis(ctx context.Context, log *logger.Logger) (*redis.Client, error) {
	addr := envutil.String("KALIKE_REDIS_ADDR", "")
	if addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: envutil.String("KALIKE_REDIS_PASSWORD", ""),
		DB:       envutil.Int("KALIKE_REDIS_DB", 0),
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	log.Info("redis connected", "addr", addr)
	return rdb, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
