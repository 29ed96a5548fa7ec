package progression

import (
	"reflect"
	"testing"
	"time"
)

func at(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 30, 0, 0, time.UTC)
}

func TestCheckAchievements(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name    string
		snap    Snapshot
		trigger Trigger
		ctx     EventContext
		want    []string
	}{
		{
			name:    "first completion at noon",
			snap:    Snapshot{Level: 1, Streak: 1, CompletedLessons: 1},
			trigger: TriggerLessonCompleted,
			ctx:     EventContext{At: at(12)},
			want:    []string{"first_lesson"},
		},
		{
			name:    "first lesson needs completion trigger",
			snap:    Snapshot{Level: 1, Streak: 1, CompletedLessons: 1},
			trigger: TriggerLessonAttempted,
			ctx:     EventContext{At: at(23)},
			want:    nil,
		},
		{
			name:    "streaks in rule order",
			snap:    Snapshot{Level: 2, Streak: 7, CompletedLessons: 4},
			trigger: TriggerLessonAttempted,
			ctx:     EventContext{At: at(12)},
			want:    []string{"streak_3", "streak_7"},
		},
		{
			name:    "night owl after 22",
			snap:    Snapshot{Level: 1, Streak: 1, CompletedLessons: 3},
			trigger: TriggerLessonCompleted,
			ctx:     EventContext{At: at(22)},
			want:    []string{"night_owl"},
		},
		{
			name:    "night owl before 5",
			snap:    Snapshot{Level: 1, Streak: 1, CompletedLessons: 3},
			trigger: TriggerLessonCompleted,
			ctx:     EventContext{At: at(4)},
			want:    []string{"night_owl"},
		},
		{
			name:    "early bird from 5 to 7",
			snap:    Snapshot{Level: 1, Streak: 1, CompletedLessons: 3},
			trigger: TriggerLessonCompleted,
			ctx:     EventContext{At: at(6)},
			want:    []string{"early_bird"},
		},
		{
			name:    "seven is daytime",
			snap:    Snapshot{Level: 1, Streak: 1, CompletedLessons: 3},
			trigger: TriggerLessonCompleted,
			ctx:     EventContext{At: at(7)},
			want:    nil,
		},
		{
			name:    "champion at level 10",
			snap:    Snapshot{XP: 10000, Level: 10, Streak: 1, CompletedLessons: 40},
			trigger: TriggerSimulationCompleted,
			ctx:     EventContext{At: at(12)},
			want:    []string{"kannada_champion"},
		},
		{
			name:    "counters from context",
			snap:    Snapshot{Level: 3, Streak: 2, CompletedLessons: 12},
			trigger: TriggerSimulationCompleted,
			ctx:     EventContext{At: at(12), PerfectLessons: 10, HighScoreSimulations: 5},
			want:    []string{"perfect_10", "simulation_master"},
		},
		{
			name:    "already unlocked skipped",
			snap:    Snapshot{Level: 1, Streak: 8, CompletedLessons: 1, Unlocked: []string{"first_lesson", "streak_3"}},
			trigger: TriggerLessonCompleted,
			ctx:     EventContext{At: at(12)},
			want:    []string{"streak_7"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(e.CheckAchievements(tt.snap, tt.trigger, tt.ctx))
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckAchievementsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	snap := Snapshot{Level: 10, Streak: 9, CompletedLessons: 1}
	ctx := EventContext{At: at(23)}

	first := e.CheckAchievements(snap, TriggerLessonCompleted, ctx)
	if len(first) == 0 {
		t.Fatal("expected unlocks on first check")
	}
	for _, a := range first {
		snap.Unlocked = append(snap.Unlocked, a.ID)
	}

	second := e.CheckAchievements(snap, TriggerLessonCompleted, ctx)
	if len(second) != 0 {
		t.Errorf("second check returned %v, want none", ids(second))
	}

	// Unchanged snapshot yields identical results.
	snap.Unlocked = nil
	again := e.CheckAchievements(snap, TriggerLessonCompleted, ctx)
	if !reflect.DeepEqual(ids(first), ids(again)) {
		t.Errorf("repeat check %v differs from %v", ids(again), ids(first))
	}
}

func TestTotalReward(t *testing.T) {
	if got := TotalReward(testAchievements[:3]); got != 170 {
		t.Errorf("TotalReward = %d, want 170", got)
	}
}

func TestNewEngineRejectsBadCatalog(t *testing.T) {
	levels, _ := NewLevelTable(testThresholds)
	xp := XPRules{LessonCompletion: 50, PerfectLesson: 100}

	bad := [][]Achievement{
		{{ID: "a", Rule: Rule{Kind: RuleFirstLesson}}, {ID: "a", Rule: Rule{Kind: RuleFirstLesson}}},
		{{ID: "b", RewardXP: -1, Rule: Rule{Kind: RuleFirstLesson}}},
		{{ID: "c", Rule: Rule{Kind: RuleStreak}}},
		{{ID: "d", Rule: Rule{Kind: "mystery"}}},
		{{ID: "e", Rule: Rule{Kind: RuleTimeWindow, FromHour: 5, ToHour: 5}}},
	}
	for i, catalog := range bad {
		if _, err := NewEngine(levels, xp, catalog); err == nil {
			t.Errorf("catalog %d: expected error", i)
		}
	}
}
