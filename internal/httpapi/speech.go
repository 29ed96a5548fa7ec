package httpapi

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kalike-app/kalike/internal/simulation"
	"github.com/kalike-app/kalike/internal/speech"
)

// readAudio loads the uploaded file in field, bounded by MaxAudio.
func (h *handlers) readAudio(c *gin.Context, field string) (simulation.Audio, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		h.badRequest(c, "missing_audio", "No audio file provided")
		return simulation.Audio{}, false
	}
	if fh.Size > h.MaxAudio {
		h.badRequest(c, "audio_too_large", fmt.Sprintf("audio exceeds %d bytes", h.MaxAudio))
		return simulation.Audio{}, false
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, fmt.Errorf("open upload: %w", err))
		return simulation.Audio{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.MaxAudio+1))
	if err != nil {
		h.fail(c, fmt.Errorf("read upload: %w", err))
		return simulation.Audio{}, false
	}
	if len(data) == 0 {
		h.badRequest(c, "missing_audio", "Empty audio file")
		return simulation.Audio{}, false
	}
	return simulation.Audio{
		Data:     data,
		MIMEType: fh.Header.Get("Content-Type"),
		Filename: fh.Filename,
	}, true
}

type synthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

// POST /api/speech/synthesize
func (h *handlers) synthesize(c *gin.Context) {
	if h.Synthesizer == nil {
		h.fail(c, errUnavailable)
		return
	}
	var req synthesizeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Text) == "" {
		h.badRequest(c, "invalid_request", "No text provided")
		return
	}
	if req.Voice == "" {
		req.Voice = speech.DefaultVoice
	}
	url, err := h.Synthesizer.Synthesize(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio_url": url})
}

// POST /api/speech/transcribe
func (h *handlers) transcribe(c *gin.Context) {
	if h.Transcriber == nil {
		h.fail(c, errUnavailable)
		return
	}
	audio, ok := h.readAudio(c, "audio")
	if !ok {
		return
	}
	lang := c.DefaultPostForm("language", simulation.DefaultLanguage)
	text, err := h.Transcriber.Transcribe(c.Request.Context(), audio, lang)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"text": text})
}

// POST /api/speech/evaluate
// Scoring failures still answer 200 with a zero score.
func (h *handlers) evaluatePronunciation(c *gin.Context) {
	if h.Pronunciation == nil {
		h.fail(c, errUnavailable)
		return
	}
	original := strings.TrimSpace(c.PostForm("original_text"))
	if original == "" {
		h.badRequest(c, "invalid_request", "No original text provided")
		return
	}
	audio, ok := h.readAudio(c, "audio")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, h.Pronunciation.Evaluate(c.Request.Context(), audio, original))
}
