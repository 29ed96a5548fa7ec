package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kalike-app/kalike/internal/game"
)

// POST /api/game/submit-lesson
func (h *handlers) submitLesson(c *gin.Context) {
	var sub game.LessonSubmission
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.badRequest(c, "invalid_request", "invalid JSON body")
		return
	}
	res, err := h.Game.SubmitLesson(c.Request.Context(), sub)
	if err != nil {
		h.fail(c, err)
		return
	}
	ids := make([]string, 0, len(res.NewAchievements))
	for _, a := range res.NewAchievements {
		ids = append(ids, a.ID)
	}
	h.Metrics.ObserveLesson(res.LessonCompleted, ids)
	c.JSON(http.StatusOK, res)
}

// GET /api/game/leaderboard?limit=N
func (h *handlers) leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	lb, err := h.Game.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lb)
}

// GET /api/game/achievements
func (h *handlers) achievements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"achievements": h.Game.Achievements()})
}

// GET /api/game/user/:userID/progress
func (h *handlers) progress(c *gin.Context) {
	view, err := h.Game.Progress(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// POST /api/user/create-guest
func (h *handlers) createGuest(c *gin.Context) {
	p, err := h.Game.CreateGuest(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p})
}

// GET /api/user/profile/:userID
func (h *handlers) profile(c *gin.Context) {
	p, err := h.Game.Profile(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p})
}

type usernameRequest struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// PUT /api/user/update-username
func (h *handlers) updateUsername(c *gin.Context) {
	var req usernameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid_request", "invalid JSON body")
		return
	}
	p, err := h.Game.UpdateUsername(c.Request.Context(), req.UserID, req.Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": p})
}
