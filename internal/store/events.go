package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "provider", "model", "purpose", "input_tokens",
	"output_tokens", "latency_ms", "success", "error_message", "request_body", "response_body",
}

// eventRepo implements EventRepo on the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert("llm_request_events").
		Columns(llmEventColumns[1:]...).
		Values(seqNum, time.Now().UTC(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error) {
	b := builder()
	sel := b.Select(llmEventColumns...).
		From(b.Table("llm_request_events")).
		OrderBy(entsql.Desc("sequence"))
	applyQueryOpts(sel, opts)
	if opts.Purpose != "" {
		sel.Where(entsql.EQ("purpose", opts.Purpose))
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEventRecord
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error) {
	b := builder()
	query, args := b.Select(llmEventColumns...).
		From(b.Table("llm_request_events")).
		Where(entsql.EQ("id", id)).
		Query()
	e, err := scanLLMEvent(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("LLM event %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	return e, nil
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error) {
	b := builder()
	query, args := b.Select(
		"purpose",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As("SUM(CASE WHEN success THEN 0 ELSE 1 END)", "failures"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency_ms"),
	).
		From(b.Table("llm_request_events")).
		GroupBy("purpose").
		OrderBy(entsql.Desc("calls")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("LLM usage by purpose: %w", err)
	}
	defer rows.Close()

	var out []LLMUsageStat
	for rows.Next() {
		var st LLMUsageStat
		if err := rows.Scan(&st.Purpose, &st.Calls, &st.Failures, &st.InputTokens, &st.OutputTokens, &st.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error) {
	b := builder()
	query, args := b.Select(
		"model",
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
	).
		From(b.Table("llm_request_events")).
		GroupBy("model").
		OrderBy(entsql.Desc("calls")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("LLM usage by model: %w", err)
	}
	defer rows.Close()

	var out []LLMModelUsage
	for rows.Next() {
		var mu LLMModelUsage
		if err := rows.Scan(&mu.Model, &mu.Calls, &mu.InputTokens, &mu.OutputTokens); err != nil {
			return nil, fmt.Errorf("scan model usage: %w", err)
		}
		out = append(out, mu)
	}
	return out, rows.Err()
}

func (r *eventRepo) PruneLLMEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	query, args := builder().Delete("llm_request_events").
		Where(entsql.LT("timestamp", cutoff.UTC())).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("prune LLM events: %w", err)
	}
	return res.RowsAffected()
}

func (r *eventRepo) AppendXP(ctx context.Context, data XPEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	query, args := builder().Insert("xp_events").
		Columns("sequence", "timestamp", "user_id", "source", "ref", "amount", "total_xp", "level").
		Values(seqNum, time.Now().UTC(), data.UserID, data.Source, data.Ref, data.Amount, data.TotalXP, data.Level).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save XP event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryXPEvents(ctx context.Context, userID string, opts QueryOpts) ([]XPEventRecord, error) {
	b := builder()
	sel := b.Select("sequence", "timestamp", "user_id", "source", "ref", "amount", "total_xp", "level").
		From(b.Table("xp_events")).
		Where(entsql.EQ("user_id", userID)).
		OrderBy(entsql.Desc("sequence"))
	applyQueryOpts(sel, opts)
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query XP events: %w", err)
	}
	defer rows.Close()

	var out []XPEventRecord
	for rows.Next() {
		var e XPEventRecord
		if err := rows.Scan(&e.Sequence, &e.Timestamp, &e.UserID, &e.Source, &e.Ref, &e.Amount, &e.TotalXP, &e.Level); err != nil {
			return nil, fmt.Errorf("scan XP event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func applyQueryOpts(sel *entsql.Selector, opts QueryOpts) {
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
	if opts.After > 0 {
		sel.Where(entsql.GT("sequence", opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT("sequence", opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("timestamp", opts.From.UTC()))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("timestamp", opts.To.UTC()))
	}
}

func scanLLMEvent(row rowScanner) (*LLMEventRecord, error) {
	var e LLMEventRecord
	err := row.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
		&e.RequestBody, &e.ResponseBody)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
