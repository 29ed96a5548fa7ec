package progression

import "testing"

var testThresholds = []int{0, 100, 250, 500, 1000, 2000, 3500, 5000, 7500, 10000}

var testAchievements = []Achievement{
	{ID: "first_lesson", Name: "First Steps", RewardXP: 20, Rule: Rule{Kind: RuleFirstLesson}},
	{ID: "streak_3", Name: "On Fire!", RewardXP: 50, Rule: Rule{Kind: RuleStreak, Min: 3}},
	{ID: "streak_7", Name: "Week Warrior", RewardXP: 100, Rule: Rule{Kind: RuleStreak, Min: 7}},
	{ID: "night_owl", Name: "Night Owl", RewardXP: 30, Rule: Rule{Kind: RuleTimeWindow, FromHour: 22, ToHour: 5}},
	{ID: "early_bird", Name: "Early Bird", RewardXP: 30, Rule: Rule{Kind: RuleTimeWindow, FromHour: 5, ToHour: 7}},
	{ID: "kannada_champion", Name: "Kannada Champion", RewardXP: 500, Rule: Rule{Kind: RuleLevel, Min: 10}},
	{ID: "perfect_10", Name: "Perfectionist", RewardXP: 200, Rule: Rule{Kind: RulePerfectLessons, Min: 10}},
	{ID: "simulation_master", Name: "Conversation Pro", RewardXP: 150, Rule: Rule{Kind: RuleHighScoreSimulations, Min: 5}},
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	levels, err := NewLevelTable(testThresholds)
	if err != nil {
		t.Fatalf("level table: %v", err)
	}
	e, err := NewEngine(levels, XPRules{CorrectAnswer: 10, LessonCompletion: 50, PerfectLesson: 100}, testAchievements)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func ids(as []Achievement) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.ID
	}
	return out
}
