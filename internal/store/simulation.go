package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var simulationColumns = []string{
	"id", "user_id", "scenario_id", "conversation", "score", "feedback",
	"duration_secs", "ended", "created_at", "ended_at",
}

type simulationRepo struct {
	db *sql.DB
}

func (r *simulationRepo) Create(ctx context.Context, rec *SimulationRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	conv, err := json.Marshal(nonNilTurns(rec.Conversation))
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	feedback, err := marshalFeedback(rec.Feedback)
	if err != nil {
		return err
	}
	query, args := builder().Insert("simulation_history").
		Columns(simulationColumns...).
		Values(rec.ID, rec.UserID, rec.ScenarioID, string(conv), rec.Score, feedback,
			rec.DurationSecs, rec.Ended, rec.CreatedAt.UTC(), nullTime(rec.EndedAt)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create simulation record: %w", err)
	}
	return nil
}

func (r *simulationRepo) Get(ctx context.Context, id string) (*SimulationRecord, error) {
	b := builder()
	query, args := b.Select(simulationColumns...).
		From(b.Table("simulation_history")).
		Where(entsql.EQ("id", id)).
		Query()
	rec, err := scanSimulation(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("simulation %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation record: %w", err)
	}
	return rec, nil
}

func (r *simulationRepo) AppendTurns(ctx context.Context, id string, turns []ConversationTurn, addSecs int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	b := builder()
	query, args := b.Select("conversation").
		From(b.Table("simulation_history")).
		Where(entsql.EQ("id", id)).
		Query()
	var raw []byte
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("simulation %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("load conversation: %w", err)
	}

	var conv []ConversationTurn
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &conv); err != nil {
			return fmt.Errorf("decode conversation: %w", err)
		}
	}
	conv = append(conv, turns...)
	encoded, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	query, args = b.Update("simulation_history").
		Set("conversation", string(encoded)).
		Add("duration_secs", addSecs).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	return tx.Commit()
}

func (r *simulationRepo) Finish(ctx context.Context, id string, score int, feedback map[string]string) error {
	fb, err := marshalFeedback(feedback)
	if err != nil {
		return err
	}
	query, args := builder().Update("simulation_history").
		Set("score", score).
		Set("feedback", fb).
		Set("ended", true).
		Set("ended_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("finish simulation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("simulation %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *simulationRepo) EndLatest(ctx context.Context, userID, scenarioID string) error {
	b := builder()
	query, args := b.Select("id").
		From(b.Table("simulation_history")).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("scenario_id", scenarioID),
			entsql.EQ("ended", false),
		)).
		OrderBy(entsql.Desc("created_at")).
		Limit(1).
		Query()
	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("open simulation for %s: %w", scenarioID, ErrNotFound)
		}
		return fmt.Errorf("find latest simulation: %w", err)
	}

	query, args = b.Update("simulation_history").
		Set("ended", true).
		Set("ended_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("end simulation: %w", err)
	}
	return nil
}

func (r *simulationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]SimulationRecord, error) {
	b := builder()
	sel := b.Select(simulationColumns...).
		From(b.Table("simulation_history")).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	defer rows.Close()

	var out []SimulationRecord
	for rows.Next() {
		rec, err := scanSimulation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan simulation: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *simulationRepo) CountScoredAtLeast(ctx context.Context, userID string, min int) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table("simulation_history")).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("ended", true),
			entsql.GTE("score", min),
		)).
		Query()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count simulations: %w", err)
	}
	return n, nil
}

func scanSimulation(row rowScanner) (*SimulationRecord, error) {
	var (
		rec            SimulationRecord
		conv, feedback []byte
		endedAt        sql.NullTime
	)
	err := row.Scan(&rec.ID, &rec.UserID, &rec.ScenarioID, &conv, &rec.Score, &feedback,
		&rec.DurationSecs, &rec.Ended, &rec.CreatedAt, &endedAt)
	if err != nil {
		return nil, err
	}
	if len(conv) > 0 {
		if err := json.Unmarshal(conv, &rec.Conversation); err != nil {
			return nil, fmt.Errorf("decode conversation: %w", err)
		}
	}
	if len(feedback) > 0 {
		if err := json.Unmarshal(feedback, &rec.Feedback); err != nil {
			return nil, fmt.Errorf("decode feedback: %w", err)
		}
	}
	if endedAt.Valid {
		rec.EndedAt = endedAt.Time
	}
	return &rec, nil
}

func marshalFeedback(fb map[string]string) (any, error) {
	if fb == nil {
		return nil, nil
	}
	b, err := json.Marshal(fb)
	if err != nil {
		return nil, fmt.Errorf("encode feedback: %w", err)
	}
	return string(b), nil
}

func nonNilTurns(turns []ConversationTurn) []ConversationTurn {
	if turns == nil {
		return []ConversationTurn{}
	}
	return turns
}
