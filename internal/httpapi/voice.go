package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kalike-app/kalike/internal/store"
	"github.com/kalike-app/kalike/internal/voice"
)

type voiceSessionRequest struct {
	SimulationType string `json:"simulation_type"`
	UserID         string `json:"user_id"`
	AgeVerified    bool   `json:"age_verified"`
}

// POST /api/livekit/create-session
func (h *handlers) createVoiceSession(c *gin.Context) {
	if h.Voice == nil || !h.Voice.Enabled() {
		h.fail(c, voice.ErrNotConfigured)
		return
	}
	var req voiceSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SimulationType == "" {
		h.badRequest(c, "invalid_request", "simulation_type is required")
		return
	}
	sc, err := h.scenarioFor(req.SimulationType, req.AgeVerified)
	if err != nil {
		h.fail(c, err)
		return
	}

	sess, err := h.Voice.CreateSession(sc.ID, req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if req.UserID != "" {
		if _, err := h.Game.RecordVoiceSession(c.Request.Context(), req.UserID, sc.ID); err != nil {
			h.log.Warn("voice session not recorded", "room", sess.RoomName, "error", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"room_name":       sess.RoomName,
		"access_token":    sess.AccessToken,
		"livekit_url":     sess.URL,
		"user_id":         sess.UserID,
		"demo_mode":       sess.DemoMode,
		"simulation_info": infoOf(sc),
	})
}

type endVoiceRequest struct {
	RoomName       string `json:"room_name"`
	UserID         string `json:"user_id"`
	SimulationType string `json:"simulation_type"`
}

// POST /api/livekit/end-session
// Rooms close on their own; this only closes the history record.
func (h *handlers) endVoiceSession(c *gin.Context) {
	var req endVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomName == "" {
		h.badRequest(c, "invalid_request", "room_name is required")
		return
	}
	if req.UserID != "" && req.SimulationType != "" {
		err := h.Game.EndVoiceSession(c.Request.Context(), req.UserID, req.SimulationType)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			h.fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "room_name": req.RoomName})
}

// GET /api/livekit/demo-token
func (h *handlers) demoToken(c *gin.Context) {
	if h.Voice == nil {
		h.fail(c, voice.ErrNotConfigured)
		return
	}
	tok, err := h.Voice.Demo()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tok)
}
