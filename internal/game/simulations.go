package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kalike-app/kalike/internal/simulation"
	"github.com/kalike-app/kalike/internal/store"
)

// SecondsPerTurn is the duration credited to a simulation per user turn.
const SecondsPerTurn = 30

// RecordSimulationStart creates the history record for a new session.
// The persona prompt is not stored.
func (s *Service) RecordSimulationStart(ctx context.Context, sess simulation.Session) error {
	rec := &store.SimulationRecord{
		ID:         sess.ID,
		UserID:     sess.UserID,
		ScenarioID: sess.ScenarioID,
		CreatedAt:  sess.StartedAt,
	}
	for _, t := range sess.History {
		if t.Role == simulation.RoleSystem {
			continue
		}
		rec.Conversation = append(rec.Conversation, conversationTurn(t))
	}
	if err := s.repos.Simulations.Create(ctx, rec); err != nil {
		return fmt.Errorf("record simulation start: %w", err)
	}
	return nil
}

// RecordTurn appends the turns added since prev to the session's history
// record.
func (s *Service) RecordTurn(ctx context.Context, prev, next simulation.Session) error {
	if len(next.History) <= len(prev.History) {
		return nil
	}
	var turns []store.ConversationTurn
	for _, t := range next.History[len(prev.History):] {
		turns = append(turns, conversationTurn(t))
	}
	if err := s.repos.Simulations.AppendTurns(ctx, next.ID, turns, SecondsPerTurn); err != nil {
		return fmt.Errorf("record simulation turn: %w", err)
	}
	return nil
}

// FinishSimulation stores the outcome of an ended session and, when the
// session belongs to a learner, applies it to their progress.
func (s *Service) FinishSimulation(ctx context.Context, sess simulation.Session) (SimulationResult, error) {
	if sess.Outcome == nil {
		return SimulationResult{}, fmt.Errorf("%w: session %s has no outcome", ErrInvalidInput, sess.ID)
	}
	out := *sess.Outcome
	if err := s.repos.Simulations.Finish(ctx, sess.ID, out.Score, out.Feedback); err != nil {
		return SimulationResult{}, fmt.Errorf("record simulation outcome: %w", err)
	}
	if sess.UserID == "" {
		return SimulationResult{Score: out.Score, Feedback: out.Feedback, NewAchievements: nonNil(nil)}, nil
	}

	res, err := s.CompleteSimulation(ctx, sess.UserID, out.Score, out.Feedback)
	if errors.Is(err, store.ErrNotFound) {
		// Sessions may name a learner that was never registered.
		s.log.Warn("simulation finished for unknown user", "user_id", sess.UserID)
		return SimulationResult{Score: out.Score, Feedback: out.Feedback, NewAchievements: nonNil(nil)}, nil
	}
	return res, err
}

// RecordVoiceSession opens a history record for a voice room.
func (s *Service) RecordVoiceSession(ctx context.Context, userID, scenarioID string) (string, error) {
	rec := &store.SimulationRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		ScenarioID: scenarioID,
		CreatedAt:  s.now(),
	}
	if err := s.repos.Simulations.Create(ctx, rec); err != nil {
		return "", fmt.Errorf("record voice session: %w", err)
	}
	return rec.ID, nil
}

// EndVoiceSession marks the learner's latest open record for a scenario
// as ended. Voice rooms are scored by the room agent, not here.
func (s *Service) EndVoiceSession(ctx context.Context, userID, scenarioID string) error {
	if userID == "" || scenarioID == "" {
		return fmt.Errorf("%w: user_id and simulation_type are required", ErrInvalidInput)
	}
	return s.repos.Simulations.EndLatest(ctx, userID, scenarioID)
}

// SimulationHistory lists a learner's most recent simulation records.
func (s *Service) SimulationHistory(ctx context.Context, userID string, limit int) ([]store.SimulationRecord, error) {
	recs, err := s.repos.Simulations.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("simulation history: %w", err)
	}
	if recs == nil {
		recs = []store.SimulationRecord{}
	}
	return recs, nil
}

func conversationTurn(t simulation.Turn) store.ConversationTurn {
	return store.ConversationTurn{Role: string(t.Role), Text: t.Text, At: t.At}
}
