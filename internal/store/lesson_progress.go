package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var lessonProgressColumns = []string{
	"user_id", "track_id", "lesson_id", "best_score", "attempts", "completed",
	"completed_at", "time_spent_secs", "answers", "last_attempt_at",
}

type lessonProgressRepo struct {
	db *sql.DB
}

func (r *lessonProgressRepo) Get(ctx context.Context, userID, trackID, lessonID string) (*LessonProgress, error) {
	b := builder()
	query, args := b.Select(lessonProgressColumns...).
		From(b.Table("lesson_progress")).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("track_id", trackID),
			entsql.EQ("lesson_id", lessonID),
		)).
		Query()

	p, err := scanLessonProgress(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lesson progress %s/%s: %w", trackID, lessonID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get lesson progress: %w", err)
	}
	return p, nil
}

func (r *lessonProgressRepo) Upsert(ctx context.Context, p *LessonProgress) error {
	if p.LastAttemptAt.IsZero() {
		p.LastAttemptAt = time.Now().UTC()
	}
	var answers any
	if len(p.Answers) > 0 {
		answers = string(p.Answers)
	}
	query, args := builder().Insert("lesson_progress").
		Columns(lessonProgressColumns...).
		Values(p.UserID, p.TrackID, p.LessonID, p.BestScore, p.Attempts, p.Completed,
			nullTime(p.CompletedAt), p.TimeSpentSecs, answers, p.LastAttemptAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("user_id", "track_id", "lesson_id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert lesson progress: %w", err)
	}
	return nil
}

func (r *lessonProgressRepo) ListByUser(ctx context.Context, userID string) ([]LessonProgress, error) {
	b := builder()
	query, args := b.Select(lessonProgressColumns...).
		From(b.Table("lesson_progress")).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("track_id", "lesson_id").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}
	defer rows.Close()

	var out []LessonProgress
	for rows.Next() {
		p, err := scanLessonProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson progress: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanLessonProgress(row rowScanner) (*LessonProgress, error) {
	var (
		p           LessonProgress
		completedAt sql.NullTime
		answers     []byte
	)
	err := row.Scan(&p.UserID, &p.TrackID, &p.LessonID, &p.BestScore, &p.Attempts, &p.Completed,
		&completedAt, &p.TimeSpentSecs, &answers, &p.LastAttemptAt)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		p.CompletedAt = completedAt.Time
	}
	if len(answers) > 0 {
		p.Answers = append([]byte(nil), answers...)
	}
	return &p, nil
}
