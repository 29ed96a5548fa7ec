package store

import (
	"context"
	"encoding/json"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To

	// Purpose narrows LLM event queries to one purpose label.
	Purpose string
}

// User is a learner's persisted profile and progression state.
type User struct {
	ID       string
	Username string
	XP       int
	Level    int
	Streak   int

	// LastActiveAt is zero for a learner who has not finished anything.
	LastActiveAt time.Time

	// CompletedLessons holds "track:lesson" keys in completion order.
	CompletedLessons []string

	// Achievements holds unlocked achievement IDs in unlock order.
	Achievements []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
	Streak   int    `json:"streak"`
}

// UserRepo manages learner rows.
type UserRepo interface {
	Create(ctx context.Context, u *User) error
	Get(ctx context.Context, id string) (*User, error)

	// UpdateUsername returns ErrConflict when another learner holds the name.
	UpdateUsername(ctx context.Context, id, username string) error

	// SaveProgress writes XP, level, streak, last activity, completed
	// lessons and achievements.
	SaveProgress(ctx context.Context, u *User) error

	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)

	// Rank is one more than the number of learners with strictly more XP.
	Rank(ctx context.Context, xp int) (int, error)
	Count(ctx context.Context) (int, error)
}

// LessonProgress is a learner's record for one lesson.
type LessonProgress struct {
	UserID        string          `json:"user_id"`
	TrackID       string          `json:"track_id"`
	LessonID      string          `json:"lesson_id"`
	BestScore     int             `json:"best_score"`
	Attempts      int             `json:"attempts"`
	Completed     bool            `json:"completed"`
	CompletedAt   time.Time       `json:"completed_at,omitzero"`
	TimeSpentSecs int             `json:"time_spent"`
	Answers       json.RawMessage `json:"answers,omitempty"`
	LastAttemptAt time.Time       `json:"last_attempt"`
}

// LessonProgressRepo manages per-lesson progress rows.
type LessonProgressRepo interface {
	// Get returns ErrNotFound when the learner never attempted the lesson.
	Get(ctx context.Context, userID, trackID, lessonID string) (*LessonProgress, error)
	Upsert(ctx context.Context, p *LessonProgress) error
	ListByUser(ctx context.Context, userID string) ([]LessonProgress, error)
}

// ConversationTurn is one persisted line of a simulation transcript.
type ConversationTurn struct {
	Role string    `json:"role"`
	Text string    `json:"content"`
	At   time.Time `json:"timestamp"`
}

// SimulationRecord is the history of one simulation session.
type SimulationRecord struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	ScenarioID   string             `json:"simulation_type"`
	Conversation []ConversationTurn `json:"conversation"`
	Score        int                `json:"score"`
	Feedback     map[string]string  `json:"feedback,omitempty"`
	DurationSecs int                `json:"duration"`
	Ended        bool               `json:"ended"`
	CreatedAt    time.Time          `json:"created_at"`
	EndedAt      time.Time          `json:"ended_at,omitzero"`
}

// SimulationRepo manages simulation history rows.
type SimulationRepo interface {
	Create(ctx context.Context, rec *SimulationRecord) error
	Get(ctx context.Context, id string) (*SimulationRecord, error)

	// AppendTurns adds turns to the transcript and extends the duration.
	AppendTurns(ctx context.Context, id string, turns []ConversationTurn, addSecs int) error

	// Finish stores the outcome and marks the record ended.
	Finish(ctx context.Context, id string, score int, feedback map[string]string) error

	// EndLatest marks the learner's most recent open record for the
	// scenario as ended. It returns ErrNotFound when none is open.
	EndLatest(ctx context.Context, userID, scenarioID string) error

	ListByUser(ctx context.Context, userID string, limit int) ([]SimulationRecord, error)

	// CountScoredAtLeast counts the learner's finished records scoring
	// at least min.
	CountScoredAtLeast(ctx context.Context, userID string, min int) (int, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEventRecord is a stored LLM request event.
type LLMEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStat aggregates LLM calls by purpose.
type LLMUsageStat struct {
	Purpose      string
	Calls        int
	Failures     int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs float64
}

// LLMModelUsage aggregates LLM calls by model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// XP sources recorded in XP events.
const (
	XPSourceLesson      = "lesson"
	XPSourceAchievement = "achievement"
)

// XPEventData records one XP award.
type XPEventData struct {
	UserID  string
	Source  string
	Ref     string // lesson key or achievement ID
	Amount  int
	TotalXP int
	Level   int
}

// XPEventRecord is a stored XP event.
type XPEventRecord struct {
	Sequence  int64
	Timestamp time.Time
	XPEventData
}

// EventRepo provides append and query access to events.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEventRecord, error)
	GetLLMEvent(ctx context.Context, id int) (*LLMEventRecord, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error)
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)

	// PruneLLMEvents deletes events recorded before cutoff and returns
	// how many were removed.
	PruneLLMEvents(ctx context.Context, cutoff time.Time) (int64, error)

	AppendXP(ctx context.Context, data XPEventData) error

	// QueryXPEvents returns one user's awards newest first, like
	// QueryLLMEvents.
	QueryXPEvents(ctx context.Context, userID string, opts QueryOpts) ([]XPEventRecord, error)
}
