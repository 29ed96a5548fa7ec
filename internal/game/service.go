// Package game applies progression rules to persisted learners: lesson
// submissions, finished simulations, profiles and the leaderboard.
package game

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kalike-app/kalike/internal/lessons"
	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/progression"
	"github.com/kalike-app/kalike/internal/store"
)

var (
	// ErrInvalidInput reports a request missing required fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidUsername reports a username outside 3..20 characters.
	ErrInvalidUsername = errors.New("username must be 3-20 characters")
)

const (
	MinUsernameLen = 3
	MaxUsernameLen = 20

	// LeaderboardSize is the default number of leaderboard rows.
	LeaderboardSize = 100
)

// Config holds the score cut-offs the service applies.
type Config struct {
	// CompletionThreshold is the lesson score that marks a lesson done.
	CompletionThreshold int
	// HighScoreThreshold is the simulation score counted toward
	// high-score achievements.
	HighScoreThreshold int
}

// Repos are the persistence dependencies of a Service. Events may be nil.
type Repos struct {
	Users       store.UserRepo
	Progress    store.LessonProgressRepo
	Simulations store.SimulationRepo
	Events      store.EventRepo
}

// Service applies the progression engine to stored learners. Updates to
// one learner are serialized within the process.
type Service struct {
	engine  *progression.Engine
	cfg     Config
	repos   Repos
	library *lessons.Library
	log     *logger.Logger
	now     func() time.Time

	locks [64]sync.Mutex
}

// NewService creates a Service. library may be nil, in which case lesson
// submissions are not checked against the track library.
func NewService(engine *progression.Engine, cfg Config, repos Repos, library *lessons.Library, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		engine:  engine,
		cfg:     cfg,
		repos:   repos,
		library: library,
		log:     log.With("component", "game"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Engine() *progression.Engine { return s.engine }

func (s *Service) lock(userID string) func() {
	h := fnv.New32a()
	h.Write([]byte(userID))
	m := &s.locks[h.Sum32()%uint32(len(s.locks))]
	m.Lock()
	return m.Unlock
}

// CreateGuest stores a new learner named Guest_<unix time>.
func (s *Service) CreateGuest(ctx context.Context) (Profile, error) {
	now := s.now()
	u := &store.User{
		ID:       uuid.NewString(),
		Username: fmt.Sprintf("Guest_%d", now.Unix()),
		Level:    1,
	}
	err := s.repos.Users.Create(ctx, u)
	if errors.Is(err, store.ErrConflict) {
		// Two guests in the same second.
		u.Username = fmt.Sprintf("Guest_%d_%s", now.Unix(), u.ID[:4])
		err = s.repos.Users.Create(ctx, u)
	}
	if err != nil {
		return Profile{}, fmt.Errorf("create guest: %w", err)
	}
	s.log.Info("guest created", "user_id", u.ID)
	return s.Profile(ctx, u.ID)
}

func (s *Service) Profile(ctx context.Context, userID string) (Profile, error) {
	u, err := s.repos.Users.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return profileOf(u), nil
}

// UpdateUsername renames a learner. Names are trimmed and must be unique.
func (s *Service) UpdateUsername(ctx context.Context, userID, username string) (Profile, error) {
	username = strings.TrimSpace(username)
	if userID == "" || username == "" {
		return Profile{}, fmt.Errorf("%w: user_id and username are required", ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(username); n < MinUsernameLen || n > MaxUsernameLen {
		return Profile{}, ErrInvalidUsername
	}
	if err := s.repos.Users.UpdateUsername(ctx, userID, username); err != nil {
		return Profile{}, err
	}
	return s.Profile(ctx, userID)
}

// SubmitLesson records a lesson attempt and applies XP, streak, level and
// achievement changes.
func (s *Service) SubmitLesson(ctx context.Context, sub LessonSubmission) (LessonResult, error) {
	if sub.UserID == "" || sub.TrackID == "" || sub.LessonID == "" {
		return LessonResult{}, fmt.Errorf("%w: user_id, track_id and lesson_id are required", ErrInvalidInput)
	}
	if s.library != nil {
		if _, err := s.library.Lesson(sub.TrackID, sub.LessonID); err != nil {
			return LessonResult{}, err
		}
	}

	defer s.lock(sub.UserID)()

	u, err := s.repos.Users.Get(ctx, sub.UserID)
	if err != nil {
		return LessonResult{}, err
	}

	prior, err := s.repos.Progress.Get(ctx, sub.UserID, sub.TrackID, sub.LessonID)
	firstAttempt := errors.Is(err, store.ErrNotFound)
	if err != nil && !firstAttempt {
		return LessonResult{}, fmt.Errorf("load lesson progress: %w", err)
	}

	lessonXP, err := s.engine.AwardLessonXP(sub.Score, sub.TimeSpentSecs, firstAttempt)
	if err != nil {
		return LessonResult{}, err
	}

	now := s.now()
	completed := sub.Score >= s.cfg.CompletionThreshold

	p := &store.LessonProgress{
		UserID:        sub.UserID,
		TrackID:       sub.TrackID,
		LessonID:      sub.LessonID,
		BestScore:     sub.Score,
		Attempts:      1,
		Completed:     completed,
		TimeSpentSecs: sub.TimeSpentSecs,
		Answers:       sub.Answers,
		LastAttemptAt: now,
	}
	if completed {
		p.CompletedAt = now
	}
	if !firstAttempt {
		p.BestScore = max(prior.BestScore, sub.Score)
		p.Attempts = prior.Attempts + 1
		p.TimeSpentSecs += prior.TimeSpentSecs
		if prior.Completed {
			p.Completed = true
			p.CompletedAt = prior.CompletedAt
		}
	}
	if err := s.repos.Progress.Upsert(ctx, p); err != nil {
		return LessonResult{}, fmt.Errorf("save lesson progress: %w", err)
	}

	oldLevel := u.Level
	key := sub.TrackID + ":" + sub.LessonID
	if completed && !slices.Contains(u.CompletedLessons, key) {
		u.CompletedLessons = append(u.CompletedLessons, key)
	}
	trigger := progression.TriggerLessonAttempted
	if completed {
		trigger = progression.TriggerLessonCompleted
	}

	ec := progression.EventContext{At: now}
	if ec.PerfectLessons, err = s.perfectLessons(ctx, sub.UserID); err != nil {
		return LessonResult{}, err
	}
	if ec.HighScoreSimulations, err = s.repos.Simulations.CountScoredAtLeast(ctx, sub.UserID, s.cfg.HighScoreThreshold); err != nil {
		return LessonResult{}, fmt.Errorf("count simulations: %w", err)
	}

	unlocked, err := s.apply(ctx, u, lessonXP, trigger, ec)
	if err != nil {
		return LessonResult{}, err
	}
	s.persist(ctx, u, store.XPSourceLesson, key, lessonXP, unlocked)

	res := LessonResult{
		XPEarned:        lessonXP + progression.TotalReward(unlocked),
		TotalXP:         u.XP,
		Level:           u.Level,
		LevelUp:         u.Level > oldLevel,
		Streak:          u.Streak,
		NewAchievements: nonNil(unlocked),
		LessonCompleted: completed,
	}
	res.XPForNextLevel, res.NextLevelTotal, _ = s.engine.XPToNextLevel(u.XP)

	s.log.Info("lesson submitted",
		"user_id", sub.UserID, "lesson", key, "score", sub.Score,
		"xp_earned", res.XPEarned, "level", res.Level, "achievements", len(unlocked))
	return res, nil
}

// CompleteSimulation applies a finished simulation to its learner. The
// simulation record must already carry its score so that it is counted
// toward high-score achievements.
func (s *Service) CompleteSimulation(ctx context.Context, userID string, score int, feedback map[string]string) (SimulationResult, error) {
	if userID == "" {
		return SimulationResult{}, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	defer s.lock(userID)()

	u, err := s.repos.Users.Get(ctx, userID)
	if err != nil {
		return SimulationResult{}, err
	}

	ec := progression.EventContext{At: s.now()}
	if ec.PerfectLessons, err = s.perfectLessons(ctx, userID); err != nil {
		return SimulationResult{}, err
	}
	if ec.HighScoreSimulations, err = s.repos.Simulations.CountScoredAtLeast(ctx, userID, s.cfg.HighScoreThreshold); err != nil {
		return SimulationResult{}, fmt.Errorf("count simulations: %w", err)
	}

	unlocked, err := s.apply(ctx, u, 0, progression.TriggerSimulationCompleted, ec)
	if err != nil {
		return SimulationResult{}, err
	}
	s.persist(ctx, u, "", "", 0, unlocked)

	return SimulationResult{
		Score:           score,
		Feedback:        feedback,
		XPEarned:        progression.TotalReward(unlocked),
		TotalXP:         u.XP,
		Level:           u.Level,
		Streak:          u.Streak,
		NewAchievements: nonNil(unlocked),
	}, nil
}

// apply adds xp, advances the streak, checks achievements against the
// resulting snapshot, adds their rewards and saves the learner.
func (s *Service) apply(ctx context.Context, u *store.User, xp int, trigger progression.Trigger, ec progression.EventContext) ([]progression.Achievement, error) {
	var err error
	u.Streak = progression.NextStreak(u.Streak, u.LastActiveAt, ec.At)
	u.LastActiveAt = ec.At
	u.XP += xp
	if u.Level, err = s.engine.LevelFor(u.XP); err != nil {
		return nil, err
	}

	unlocked := s.engine.CheckAchievements(progression.Snapshot{
		XP:               u.XP,
		Level:            u.Level,
		Streak:           u.Streak,
		CompletedLessons: len(u.CompletedLessons),
		Unlocked:         u.Achievements,
	}, trigger, ec)
	if len(unlocked) > 0 {
		for _, a := range unlocked {
			u.Achievements = append(u.Achievements, a.ID)
		}
		u.XP += progression.TotalReward(unlocked)
		if u.Level, err = s.engine.LevelFor(u.XP); err != nil {
			return nil, err
		}
	}

	if err := s.repos.Users.SaveProgress(ctx, u); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return unlocked, nil
}

// persist records XP events for an award and its achievements. Failures
// are logged and do not undo the award.
func (s *Service) persist(ctx context.Context, u *store.User, source, ref string, amount int, unlocked []progression.Achievement) {
	if s.repos.Events == nil {
		return
	}
	total := u.XP - progression.TotalReward(unlocked)
	if source != "" {
		s.appendXP(ctx, store.XPEventData{UserID: u.ID, Source: source, Ref: ref, Amount: amount, TotalXP: total})
	}
	for _, a := range unlocked {
		total += a.RewardXP
		s.appendXP(ctx, store.XPEventData{UserID: u.ID, Source: store.XPSourceAchievement, Ref: a.ID, Amount: a.RewardXP, TotalXP: total})
	}
}

func (s *Service) appendXP(ctx context.Context, data store.XPEventData) {
	data.Level, _ = s.engine.LevelFor(data.TotalXP)
	if err := s.repos.Events.AppendXP(ctx, data); err != nil {
		s.log.Warn("xp event not recorded", "user_id", data.UserID, "source", data.Source, "error", err)
	}
}

func (s *Service) perfectLessons(ctx context.Context, userID string) (int, error) {
	rows, err := s.repos.Progress.ListByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list lesson progress: %w", err)
	}
	n := 0
	for _, r := range rows {
		if r.BestScore == 100 {
			n++
		}
	}
	return n, nil
}

// Progress assembles a learner's progress view.
func (s *Service) Progress(ctx context.Context, userID string) (ProgressView, error) {
	u, err := s.repos.Users.Get(ctx, userID)
	if err != nil {
		return ProgressView{}, err
	}
	rows, err := s.repos.Progress.ListByUser(ctx, userID)
	if err != nil {
		return ProgressView{}, fmt.Errorf("list lesson progress: %w", err)
	}
	rank, err := s.repos.Users.Rank(ctx, u.XP)
	if err != nil {
		return ProgressView{}, fmt.Errorf("rank: %w", err)
	}
	highScores, err := s.repos.Simulations.CountScoredAtLeast(ctx, userID, s.cfg.HighScoreThreshold)
	if err != nil {
		return ProgressView{}, fmt.Errorf("count simulations: %w", err)
	}

	st := Stats{
		GlobalRank:           rank,
		HighScoreSimulations: highScores,
	}
	st.XPToNextLevel, st.NextLevelTotal, _ = s.engine.XPToNextLevel(u.XP)
	st.LevelProgress, _ = s.engine.Levels().ProgressPercent(u.XP)
	for _, r := range rows {
		if r.Completed {
			st.TotalLessonsCompleted++
		}
		if r.BestScore == 100 {
			st.PerfectLessons++
		}
	}

	achievements := []progression.Achievement{}
	for _, id := range u.Achievements {
		// Entries dropped from the catalog are skipped.
		if a, ok := s.engine.Achievement(id); ok {
			achievements = append(achievements, a)
		}
	}
	if rows == nil {
		rows = []store.LessonProgress{}
	}

	return ProgressView{
		User:           profileOf(u),
		LessonProgress: rows,
		Achievements:   achievements,
		Stats:          st,
	}, nil
}

// Leaderboard returns the top learners by XP. limit <= 0 means
// LeaderboardSize.
func (s *Service) Leaderboard(ctx context.Context, limit int) (Leaderboard, error) {
	if limit <= 0 {
		limit = LeaderboardSize
	}
	entries, err := s.repos.Users.Leaderboard(ctx, limit)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("leaderboard: %w", err)
	}
	total, err := s.repos.Users.Count(ctx)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("count users: %w", err)
	}
	if entries == nil {
		entries = []store.LeaderboardEntry{}
	}
	return Leaderboard{Entries: entries, TotalPlayers: total}, nil
}

// Achievements lists the achievement catalog in rule order.
func (s *Service) Achievements() []progression.Achievement {
	return s.engine.Achievements()
}

func nonNil(a []progression.Achievement) []progression.Achievement {
	if a == nil {
		return []progression.Achievement{}
	}
	return a
}
