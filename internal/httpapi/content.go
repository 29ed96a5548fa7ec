package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalike-app/kalike/internal/lessons"
	"github.com/kalike-app/kalike/internal/speech"
)

func (h *handlers) healthcheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.Version})
}

// GET /api/tracks
func (h *handlers) listTracks(c *gin.Context) {
	c.JSON(http.StatusOK, h.Library.Summaries())
}

// GET /api/tracks/:trackID
func (h *handlers) getTrack(c *gin.Context) {
	t, err := h.Library.Track(c.Param("trackID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /api/lesson/:trackID/:lessonID
// Audio lessons without a recording get synthesized speech attached.
func (h *handlers) getLesson(c *gin.Context) {
	l, err := h.Library.Lesson(c.Param("trackID"), c.Param("lessonID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if text := l.SpokenText(); text != "" && l.Content.AudioURL == "" && h.Synthesizer != nil {
		url, err := h.Synthesizer.Synthesize(c.Request.Context(), text, speech.DefaultVoice)
		if err != nil {
			h.log.Warn("lesson audio synthesis failed", "lesson", l.ID, "error", err)
		} else {
			l.Content.AudioURL = url
		}
	}
	c.JSON(http.StatusOK, l)
}

type validateRequest struct {
	LessonType    lessons.Type   `json:"lesson_type"`
	UserAnswer    lessons.Answer `json:"user_answer"`
	CorrectAnswer lessons.Answer `json:"correct_answer"`
}

// POST /api/validate-answer
func (h *handlers) validateAnswer(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid_request", "invalid JSON body")
		return
	}
	if req.LessonType == "" || req.UserAnswer.IsZero() || req.CorrectAnswer.IsZero() {
		h.badRequest(c, "invalid_request", "Missing required fields")
		return
	}
	res, err := lessons.ValidateAnswer(req.LessonType, req.UserAnswer, req.CorrectAnswer)
	if err != nil {
		if ae := classify(err); ae.Status == http.StatusInternalServerError {
			h.badRequest(c, "invalid_request", err.Error())
			return
		}
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
