// Package httpapi serves the learning, simulation, progression and voice
// endpoints over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/kalike-app/kalike/internal/game"
	"github.com/kalike-app/kalike/internal/lessons"
	"github.com/kalike-app/kalike/internal/observability"
	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/sessions"
	"github.com/kalike-app/kalike/internal/simulation"
	"github.com/kalike-app/kalike/internal/speech"
	"github.com/kalike-app/kalike/internal/voice"
)

// DefaultMaxAudioBytes bounds uploaded recordings.
const DefaultMaxAudioBytes = 10 << 20

// Deps are the services behind the routes. Synthesizer, Transcriber,
// Pronunciation, Filter, Voice and Metrics may be nil; the routes that
// need them answer 503.
type Deps struct {
	Log      *logger.Logger
	Metrics  *observability.Metrics
	Version  string
	Origins  []string
	MaxAudio int64

	Library    *lessons.Library
	Game       *game.Service
	Controller *simulation.Controller
	Sessions   sessions.Store

	Synthesizer   simulation.Synthesizer
	Transcriber   simulation.Transcriber
	Pronunciation *speech.PronunciationEvaluator
	Filter        *speech.KeywordFilter
	Voice         *voice.Rooms
}

type handlers struct {
	Deps
	log *logger.Logger
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.MaxAudio <= 0 {
		d.MaxAudio = DefaultMaxAudioBytes
	}
	h := &handlers{Deps: d, log: d.Log.With("component", "http")}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("kalike"))
	r.Use(AttachRequestID())
	r.Use(RequestLogger(d.Log))
	r.Use(Metrics(d.Metrics))
	r.Use(CORS(d.Origins))
	r.MaxMultipartMemory = d.MaxAudio

	r.GET("/healthcheck", h.healthcheck)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := r.Group("/api")
	{
		api.GET("/status", h.status)

		// Content
		api.GET("/tracks", h.listTracks)
		api.GET("/tracks/:trackID", h.getTrack)
		api.GET("/lesson/:trackID/:lessonID", h.getLesson)
		api.POST("/validate-answer", h.validateAnswer)

		// Speech
		api.POST("/speech/synthesize", h.synthesize)
		api.POST("/speech/transcribe", h.transcribe)
		api.POST("/speech/evaluate", h.evaluatePronunciation)

		// Simulations
		api.GET("/simulations", h.listSimulations)
		api.GET("/simulations/history/:userID", h.simulationHistory)
		api.POST("/simulation/start", h.startSimulation)
		api.POST("/simulation/converse", h.converse)
		api.POST("/simulation/end", h.endSimulation)

		// Progression
		api.POST("/game/submit-lesson", h.submitLesson)
		api.GET("/game/leaderboard", h.leaderboard)
		api.GET("/game/achievements", h.achievements)
		api.GET("/game/user/:userID/progress", h.progress)

		// Users
		api.POST("/user/create-guest", h.createGuest)
		api.GET("/user/profile/:userID", h.profile)
		api.PUT("/user/update-username", h.updateUsername)

		// Voice rooms
		api.POST("/livekit/create-session", h.createVoiceSession)
		api.POST("/livekit/end-session", h.endVoiceSession)
		api.GET("/livekit/demo-token", h.demoToken)
	}
	return r
}

// Server runs the router with graceful shutdown.
type Server struct {
	Engine *gin.Engine
	log    *logger.Logger
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Engine: NewRouter(d), log: log}
}

// Run serves on addr until ctx is cancelled, then drains in-flight
// requests for up to 15 seconds.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	s.log.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
