package game

import (
	"encoding/json"
	"time"

	"github.com/kalike-app/kalike/internal/progression"
	"github.com/kalike-app/kalike/internal/store"
)

// Profile is the public view of a learner.
type Profile struct {
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	XP               int       `json:"xp"`
	Level            int       `json:"level"`
	Streak           int       `json:"streak"`
	CompletedLessons []string  `json:"completed_lessons"`
	Achievements     []string  `json:"achievements"`
	LastActive       time.Time `json:"last_active,omitzero"`
	CreatedAt        time.Time `json:"created_at"`
}

func profileOf(u *store.User) Profile {
	p := Profile{
		UserID:           u.ID,
		Username:         u.Username,
		XP:               u.XP,
		Level:            u.Level,
		Streak:           u.Streak,
		CompletedLessons: u.CompletedLessons,
		Achievements:     u.Achievements,
		LastActive:       u.LastActiveAt,
		CreatedAt:        u.CreatedAt,
	}
	if p.CompletedLessons == nil {
		p.CompletedLessons = []string{}
	}
	if p.Achievements == nil {
		p.Achievements = []string{}
	}
	return p
}

// LessonSubmission is one finished lesson attempt.
type LessonSubmission struct {
	UserID        string          `json:"user_id"`
	TrackID       string          `json:"track_id"`
	LessonID      string          `json:"lesson_id"`
	Score         int             `json:"score"`
	TimeSpentSecs int             `json:"time_spent"`
	Answers       json.RawMessage `json:"answers,omitempty"`
}

// LessonResult reports what a submission changed.
type LessonResult struct {
	XPEarned        int                       `json:"xp_earned"`
	TotalXP         int                       `json:"total_xp"`
	Level           int                       `json:"level"`
	LevelUp         bool                      `json:"level_up"`
	Streak          int                       `json:"streak"`
	NewAchievements []progression.Achievement `json:"new_achievements"`
	XPForNextLevel  int                       `json:"xp_for_next_level"`
	NextLevelTotal  int                       `json:"next_level_total"`
	LessonCompleted bool                      `json:"lesson_completed"`
}

// SimulationResult reports what a finished simulation changed for its
// learner.
type SimulationResult struct {
	Score           int                       `json:"score"`
	Feedback        map[string]string         `json:"feedback"`
	XPEarned        int                       `json:"xp_earned"`
	TotalXP         int                       `json:"total_xp"`
	Level           int                       `json:"level"`
	Streak          int                       `json:"streak"`
	NewAchievements []progression.Achievement `json:"new_achievements"`
}

// Stats summarizes a learner's standing.
type Stats struct {
	GlobalRank            int     `json:"global_rank"`
	XPToNextLevel         int     `json:"xp_to_next_level"`
	NextLevelTotal        int     `json:"next_level_total"`
	LevelProgress         float64 `json:"level_progress_percentage"`
	TotalLessonsCompleted int     `json:"total_lessons_completed"`
	PerfectLessons        int     `json:"perfect_lessons"`
	HighScoreSimulations  int     `json:"high_score_simulations"`
}

// ProgressView is everything the progress screen shows.
type ProgressView struct {
	User           Profile                   `json:"user"`
	LessonProgress []store.LessonProgress    `json:"lesson_progress"`
	Achievements   []progression.Achievement `json:"achievements"`
	Stats          Stats                     `json:"stats"`
}

// Leaderboard is the top of the XP table.
type Leaderboard struct {
	Entries      []store.LeaderboardEntry `json:"leaderboard"`
	TotalPlayers int                      `json:"total_players"`
}
