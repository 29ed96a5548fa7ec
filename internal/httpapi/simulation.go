package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kalike-app/kalike/internal/game"
	"github.com/kalike-app/kalike/internal/platform/apierr"
	"github.com/kalike-app/kalike/internal/simulation"
)

var (
	errAgeRestricted = apierr.New(http.StatusForbidden, "age_verification_required",
		errors.New("Age verification required for this simulation"))
	errInappropriate = apierr.BadRequest("inappropriate_content", "Inappropriate content detected")
)

// simulationInfo is a scenario as listed to clients.
type simulationInfo struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Tips          []string `json:"tips"`
	AgeRestricted bool     `json:"age_restricted"`
}

func infoOf(sc simulation.Scenario) simulationInfo {
	tips := sc.Tips
	if tips == nil {
		tips = []string{}
	}
	return simulationInfo{
		ID:            sc.ID,
		Title:         sc.Title,
		Description:   sc.Description,
		Tips:          tips,
		AgeRestricted: sc.AgeRestricted,
	}
}

// GET /api/simulations
func (h *handlers) listSimulations(c *gin.Context) {
	all := h.Controller.Catalog().All()
	out := make([]simulationInfo, 0, len(all))
	for _, sc := range all {
		out = append(out, infoOf(sc))
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/simulations/history/:userID?limit=N
func (h *handlers) simulationHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	recs, err := h.Game.SimulationHistory(c.Request.Context(), c.Param("userID"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": recs})
}

type startRequest struct {
	SimulationType string `json:"simulation_type"`
	UserID         string `json:"user_id"`
	AgeVerified    bool   `json:"age_verified"`
}

// scenarioFor resolves id and enforces the age gate.
func (h *handlers) scenarioFor(id string, ageVerified bool) (simulation.Scenario, error) {
	sc, ok := h.Controller.Catalog().Get(id)
	if !ok {
		return simulation.Scenario{}, simulation.ErrUnknownScenario
	}
	if sc.AgeRestricted && !ageVerified {
		return simulation.Scenario{}, errAgeRestricted
	}
	return sc, nil
}

// POST /api/simulation/start
func (h *handlers) startSimulation(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SimulationType == "" {
		h.badRequest(c, "invalid_request", "simulation_type is required")
		return
	}
	sc, err := h.scenarioFor(req.SimulationType, req.AgeVerified)
	if err != nil {
		h.fail(c, err)
		return
	}

	ctx := c.Request.Context()
	sess, reply, err := h.Controller.Start(ctx, sc.ID, req.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Sessions.Create(ctx, sess); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Game.RecordSimulationStart(ctx, sess); err != nil {
		h.log.Warn("simulation history not recorded", "session_id", sess.ID, "error", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"text":       reply.Text,
		"audio_url":  reply.AudioURL,
		"history":    visibleHistory(sess.History),
		"simulation": infoOf(sc),
	})
}

// POST /api/simulation/converse (multipart: session_id, audio)
func (h *handlers) converse(c *gin.Context) {
	id := c.PostForm("session_id")
	if id == "" {
		h.badRequest(c, "invalid_request", "session_id is required")
		return
	}
	audio, ok := h.readAudio(c, "audio")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	var (
		prev   simulation.Session
		result simulation.TurnResult
	)
	next, err := h.Sessions.Update(ctx, id, func(sess simulation.Session) (simulation.Session, error) {
		prev = sess
		if sc, ok := h.Controller.Catalog().Get(sess.ScenarioID); ok && sc.AgeRestricted &&
			sess.Phase != simulation.PhaseEnded && h.Filter != nil && !h.Filter.CheckAudio(ctx, audio) {
			return sess, errInappropriate
		}
		updated, res, err := h.Controller.ProcessTurn(ctx, sess, audio)
		if err != nil {
			return sess, err
		}
		result = res
		return updated, nil
	})
	if err != nil {
		h.Metrics.ObserveTurn(prev.ScenarioID, turnResultLabel(err))
		h.fail(c, err)
		return
	}
	h.Metrics.ObserveTurn(next.ScenarioID, "ok")

	if err := h.Game.RecordTurn(ctx, prev, next); err != nil {
		h.log.Warn("simulation turn not recorded", "session_id", id, "error", err)
	}

	resp := gin.H{
		"user_text":        result.UserText,
		"text":             result.Reply.Text,
		"audio_url":        result.Reply.AudioURL,
		"end_conversation": result.Ended,
	}
	if result.Ended {
		res, err := h.finish(ctx, next)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp["outcome"] = res
	}
	c.JSON(http.StatusOK, resp)
}

type endRequest struct {
	SessionID string `json:"session_id"`
}

// POST /api/simulation/end
func (h *handlers) endSimulation(c *gin.Context) {
	var req endRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
		h.badRequest(c, "invalid_request", "session_id is required")
		return
	}
	ctx := c.Request.Context()
	next, err := h.Sessions.Update(ctx, req.SessionID, h.Controller.End)
	if err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.finish(ctx, next)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// finish records an ended session's outcome and drops it from the
// active store.
func (h *handlers) finish(ctx context.Context, sess simulation.Session) (game.SimulationResult, error) {
	res, err := h.Game.FinishSimulation(ctx, sess)
	if err != nil {
		return game.SimulationResult{}, err
	}
	h.Metrics.ObserveSimulationScore(sess.ScenarioID, res.Score)
	h.Metrics.ObserveAchievements(achievementIDs(res))
	if err := h.Sessions.Delete(ctx, sess.ID); err != nil {
		h.log.Warn("ended session not deleted", "session_id", sess.ID, "error", err)
	}
	return res, nil
}

func achievementIDs(res game.SimulationResult) []string {
	ids := make([]string, 0, len(res.NewAchievements))
	for _, a := range res.NewAchievements {
		ids = append(ids, a.ID)
	}
	return ids
}

func turnResultLabel(err error) string {
	switch {
	case errors.Is(err, simulation.ErrUnintelligibleInput):
		return "unintelligible"
	case errors.Is(err, errInappropriate):
		return "blocked"
	default:
		return "error"
	}
}

// visibleHistory drops the persona turn.
func visibleHistory(h simulation.History) simulation.History {
	out := make(simulation.History, 0, len(h))
	for _, t := range h {
		if t.Role != simulation.RoleSystem {
			out = append(out, t)
		}
	}
	return out
}
