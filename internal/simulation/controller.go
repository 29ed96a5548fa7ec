// Package simulation runs voice roleplay sessions: it keeps the
// transcript, asks collaborators for transcription, replies and speech,
// and decides when a conversation ends and how it scored.
package simulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalike-app/kalike/internal/platform/logger"
)

// FallbackReply is used when reply generation fails.
const FallbackReply = "ಕ್ಷಮಿಸಿ, ಸ್ವಲ್ಪ ಸಮಸ್ಯೆ ಆಗಿದೆ. [Kshamisi, swalpa samasye agide.]"

// DefaultLanguage is the transcription hint for Kannada.
const DefaultLanguage = "kn"

// Collaborators are the external services a Controller calls. Filter and
// Synthesizer are optional.
type Collaborators struct {
	Transcriber Transcriber
	Replies     ReplyGenerator
	Synthesizer Synthesizer
	Filter      ContentFilter
}

// Controller drives sessions through Greeting, AwaitingUserTurn,
// ProcessingTurn and Ended. It holds no per-session state.
type Controller struct {
	catalog  *Catalog
	collab   Collaborators
	log      *logger.Logger
	language string
	now      func() time.Time
}

// NewController creates a Controller over an immutable catalog.
func NewController(catalog *Catalog, collab Collaborators, log *logger.Logger) (*Controller, error) {
	if catalog == nil {
		return nil, fmt.Errorf("scenario catalog is required")
	}
	if collab.Transcriber == nil || collab.Replies == nil {
		return nil, fmt.Errorf("transcriber and reply generator are required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Controller{
		catalog:  catalog,
		collab:   collab,
		log:      log.With("component", "simulation"),
		language: DefaultLanguage,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Catalog returns the scenarios this controller serves.
func (c *Controller) Catalog() *Catalog {
	return c.catalog
}

// Start opens a session for scenarioID. The returned history holds the
// persona and the opening line, and the session awaits the user.
func (c *Controller) Start(ctx context.Context, scenarioID, userID string) (Session, Reply, error) {
	sc, ok := c.catalog.Get(scenarioID)
	if !ok {
		return Session{}, Reply{}, fmt.Errorf("%w: %q", ErrUnknownScenario, scenarioID)
	}

	now := c.now()
	sess := Session{
		ID:         uuid.NewString(),
		ScenarioID: sc.ID,
		UserID:     userID,
		Phase:      PhaseGreeting,
		StartedAt:  now,
		UpdatedAt:  now,
		History: History{
			{Role: RoleSystem, Text: sc.Persona, At: now},
			{Role: RoleAgent, Text: sc.Opening, At: now},
		},
	}

	reply := Reply{Text: sc.Opening, AudioURL: c.synthesize(ctx, sc, sc.Opening)}
	sess.Phase = PhaseAwaitingUserTurn
	return sess, reply, nil
}

// ProcessTurn runs one user turn. On ErrUnintelligibleInput the input
// session is returned unchanged. Reply generation failures are replaced
// by FallbackReply and synthesis failures leave the audio empty.
func (c *Controller) ProcessTurn(ctx context.Context, sess Session, audio Audio) (Session, TurnResult, error) {
	switch sess.Phase {
	case PhaseEnded:
		return sess, TurnResult{}, ErrSessionEnded
	case PhaseProcessingTurn:
		return sess, TurnResult{}, ErrTurnInProgress
	}

	sc, ok := c.catalog.Get(sess.ScenarioID)
	if !ok {
		return sess, TurnResult{}, fmt.Errorf("%w: %q", ErrUnknownScenario, sess.ScenarioID)
	}

	text, err := c.collab.Transcriber.Transcribe(ctx, audio, c.language)
	if err != nil {
		c.log.Warn("transcription failed", "scenario", sc.ID, "session_id", sess.ID, "error", err)
		return sess, TurnResult{}, ErrUnintelligibleInput
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return sess, TurnResult{}, ErrUnintelligibleInput
	}

	next := sess.Clone()
	next.Phase = PhaseProcessingTurn
	if !next.History.hasPersona() {
		next.History = append(History{{Role: RoleSystem, Text: sc.Persona, At: next.StartedAt}}, next.History...)
	}
	next.History = append(next.History, Turn{Role: RoleUser, Text: text, At: c.now()})

	replyText := c.generate(ctx, sc, next)
	if sc.AgeRestricted && c.collab.Filter != nil {
		replyText = c.collab.Filter.Filter(replyText, sc)
	}
	next.History = append(next.History, Turn{Role: RoleAgent, Text: replyText, At: c.now()})

	result := TurnResult{
		UserText: text,
		Reply:    Reply{Text: replyText, AudioURL: c.synthesize(ctx, sc, replyText)},
	}

	next.UpdatedAt = c.now()
	if ShouldEnd(sc, next.History) {
		outcome := Score(sc, next.History)
		next.Phase = PhaseEnded
		next.Outcome = &outcome
		result.Ended = true
		result.Outcome = &outcome
		c.log.Info("simulation ended", "scenario", sc.ID, "session_id", next.ID,
			"turns", len(next.History), "score", outcome.Score)
	} else {
		next.Phase = PhaseAwaitingUserTurn
	}
	return next, result, nil
}

// End closes a session early and scores it. A session that already
// ended returns ErrSessionEnded, so only one caller ever sees the
// transition.
func (c *Controller) End(sess Session) (Session, error) {
	if sess.Phase == PhaseEnded {
		return sess, ErrSessionEnded
	}
	sc, ok := c.catalog.Get(sess.ScenarioID)
	if !ok {
		return sess, fmt.Errorf("%w: %q", ErrUnknownScenario, sess.ScenarioID)
	}
	next := sess.Clone()
	outcome := Score(sc, next.History)
	next.Outcome = &outcome
	next.Phase = PhaseEnded
	next.UpdatedAt = c.now()
	return next, nil
}

func (c *Controller) generate(ctx context.Context, sc Scenario, sess Session) string {
	reply, err := c.collab.Replies.GenerateReply(ctx, sess.History)
	if err != nil {
		c.log.Warn("reply generation failed, using fallback", "scenario", sc.ID, "session_id", sess.ID, "error", err)
		return FallbackReply
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		c.log.Warn("empty reply, using fallback", "scenario", sc.ID, "session_id", sess.ID)
		return FallbackReply
	}
	return reply
}

func (c *Controller) synthesize(ctx context.Context, sc Scenario, text string) string {
	if c.collab.Synthesizer == nil {
		return ""
	}
	url, err := c.collab.Synthesizer.Synthesize(ctx, text, sc.Voice)
	if err != nil {
		c.log.Warn("speech synthesis failed", "scenario", sc.ID, "error", err)
		return ""
	}
	return url
}
