package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalike-app/kalike/internal/game"
	"github.com/kalike-app/kalike/internal/lessons"
	"github.com/kalike-app/kalike/internal/platform/apierr"
	"github.com/kalike-app/kalike/internal/progression"
	"github.com/kalike-app/kalike/internal/sessions"
	"github.com/kalike-app/kalike/internal/simulation"
	"github.com/kalike-app/kalike/internal/store"
	"github.com/kalike-app/kalike/internal/voice"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

var errUnavailable = errors.New("service not configured")

// classify maps domain errors to statuses and codes. Unknown errors are
// 500s whose message is not shown to clients.
func classify(err error) *apierr.Error {
	if ae, ok := apierr.As(err); ok {
		return ae
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apierr.New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, sessions.ErrNotFound):
		return apierr.New(http.StatusNotFound, "session_not_found", err)
	case errors.Is(err, lessons.ErrTrackNotFound):
		return apierr.New(http.StatusNotFound, "track_not_found", err)
	case errors.Is(err, lessons.ErrLessonNotFound):
		return apierr.New(http.StatusNotFound, "lesson_not_found", err)
	case errors.Is(err, simulation.ErrUnknownScenario):
		return apierr.New(http.StatusNotFound, "unknown_scenario", err)
	case errors.Is(err, store.ErrConflict):
		return apierr.New(http.StatusConflict, "username_taken", errors.New("Username already taken"))
	case errors.Is(err, simulation.ErrSessionEnded):
		return apierr.New(http.StatusConflict, "session_ended", err)
	case errors.Is(err, simulation.ErrTurnInProgress):
		return apierr.New(http.StatusConflict, "turn_in_progress", err)
	case errors.Is(err, simulation.ErrUnintelligibleInput):
		return apierr.New(http.StatusBadRequest, "unintelligible_audio", err)
	case errors.Is(err, game.ErrInvalidUsername):
		return apierr.New(http.StatusBadRequest, "invalid_username", err)
	case errors.Is(err, game.ErrInvalidInput),
		errors.Is(err, progression.ErrInvalidProgressionInput):
		return apierr.New(http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, lessons.ErrNotCheckable):
		return apierr.New(http.StatusBadRequest, "not_checkable", err)
	case errors.Is(err, voice.ErrNotConfigured), errors.Is(err, errUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "unavailable", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apierr.New(http.StatusGatewayTimeout, "timeout", errors.New("request timed out"))
	}
	return apierr.New(http.StatusInternalServerError, "internal_error", err)
}

func (h *handlers) fail(c *gin.Context, err error) {
	ae := classify(err)
	msg := ae.Error()
	if ae.Status >= 500 {
		h.log.Error("request failed", "path", c.FullPath(), "error", err, "request_id", c.GetString("request_id"))
		if ae.Status == http.StatusInternalServerError {
			msg = "Internal server error"
		}
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{Error: APIError{Message: msg, Code: ae.Code}})
}

func (h *handlers) badRequest(c *gin.Context, code, msg string) {
	h.fail(c, apierr.BadRequest(code, msg))
}
