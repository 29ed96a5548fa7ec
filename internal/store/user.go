package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

var userColumns = []string{
	"id", "username", "xp", "level", "streak", "last_active_at",
	"completed_lessons", "achievements", "created_at", "updated_at",
}

type userRepo struct {
	db *sql.DB
}

func (r *userRepo) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Level == 0 {
		u.Level = 1
	}

	completed, achievements, err := marshalUserLists(u)
	if err != nil {
		return err
	}
	query, args := builder().Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Username, u.XP, u.Level, u.Streak, nullTime(u.LastActiveAt),
			completed, achievements, u.CreatedAt, u.UpdatedAt).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create user %q: %w", u.Username, ErrConflict)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*User, error) {
	b := builder()
	query, args := b.Select(userColumns...).
		From(b.Table("users")).
		Where(entsql.EQ("id", id)).
		Query()

	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *userRepo) UpdateUsername(ctx context.Context, id, username string) error {
	b := builder()
	query, args := b.Select("id").
		From(b.Table("users")).
		Where(entsql.And(entsql.EQ("username", username), entsql.NEQ("id", id))).
		Query()
	var other string
	switch err := r.db.QueryRowContext(ctx, query, args...).Scan(&other); {
	case err == nil:
		return fmt.Errorf("username %q: %w", username, ErrConflict)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("check username: %w", err)
	}

	query, args = b.Update("users").
		Set("username", username).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", id)).
		Query()
	return r.execOne(ctx, "update username", id, query, args)
}

func (r *userRepo) SaveProgress(ctx context.Context, u *User) error {
	completed, achievements, err := marshalUserLists(u)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	query, args := builder().Update("users").
		Set("xp", u.XP).
		Set("level", u.Level).
		Set("streak", u.Streak).
		Set("last_active_at", nullTime(u.LastActiveAt)).
		Set("completed_lessons", completed).
		Set("achievements", achievements).
		Set("updated_at", u.UpdatedAt).
		Where(entsql.EQ("id", u.ID)).
		Query()
	return r.execOne(ctx, "save progress", u.ID, query, args)
}

func (r *userRepo) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	b := builder()
	sel := b.Select("id", "username", "xp", "level", "streak").
		From(b.Table("users")).
		OrderBy(entsql.Desc("xp"), entsql.Asc("created_at"))
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.XP, &e.Level, &e.Streak); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *userRepo) Rank(ctx context.Context, xp int) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).
		From(b.Table("users")).
		Where(entsql.GT("xp", xp)).
		Query()
	var above int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&above); err != nil {
		return 0, fmt.Errorf("rank: %w", err)
	}
	return above + 1, nil
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	b := builder()
	query, args := b.Select(entsql.Count("*")).From(b.Table("users")).Query()
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *userRepo) execOne(ctx context.Context, op, id, query string, args []any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u                       User
		lastActive              sql.NullTime
		completed, achievements []byte
	)
	err := row.Scan(&u.ID, &u.Username, &u.XP, &u.Level, &u.Streak, &lastActive,
		&completed, &achievements, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastActive.Valid {
		u.LastActiveAt = lastActive.Time
	}
	if err := unmarshalList(completed, &u.CompletedLessons); err != nil {
		return nil, fmt.Errorf("decode completed lessons: %w", err)
	}
	if err := unmarshalList(achievements, &u.Achievements); err != nil {
		return nil, fmt.Errorf("decode achievements: %w", err)
	}
	return &u, nil
}

func marshalUserLists(u *User) (string, string, error) {
	completed, err := marshalList(u.CompletedLessons)
	if err != nil {
		return "", "", fmt.Errorf("encode completed lessons: %w", err)
	}
	achievements, err := marshalList(u.Achievements)
	if err != nil {
		return "", "", fmt.Errorf("encode achievements: %w", err)
	}
	return completed, achievements, nil
}

func marshalList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}

func unmarshalList(raw []byte, dst *[]string) error {
	if len(raw) == 0 {
		*dst = nil
		return nil
	}
	return json.Unmarshal(raw, dst)
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
