package progression

import (
	"fmt"
	"time"
)

// Trigger names the event that prompted an achievement check.
type Trigger string

const (
	TriggerLessonCompleted     Trigger = "lesson_completed"
	TriggerLessonAttempted     Trigger = "lesson_attempted"
	TriggerSimulationCompleted Trigger = "simulation_completed"
)

// RuleKind selects how an achievement's Rule is evaluated.
type RuleKind string

const (
	// RuleFirstLesson fires on the completion that brings the user's
	// completed lesson count to exactly one.
	RuleFirstLesson RuleKind = "first_lesson"
	// RuleStreak fires when the streak is at least Min.
	RuleStreak RuleKind = "streak"
	// RuleTimeWindow fires on a lesson completion whose hour falls in
	// [FromHour, ToHour). Windows with FromHour > ToHour wrap midnight.
	RuleTimeWindow RuleKind = "time_window"
	// RuleLevel fires when the level is at least Min.
	RuleLevel RuleKind = "level"
	// RulePerfectLessons fires when at least Min lessons have a best
	// score of 100.
	RulePerfectLessons RuleKind = "perfect_lessons"
	// RuleHighScoreSimulations fires when at least Min simulations
	// ended with a high score.
	RuleHighScoreSimulations RuleKind = "high_score_simulations"
)

// Rule is the unlock condition attached to an Achievement.
type Rule struct {
	Kind     RuleKind `yaml:"kind" json:"kind"`
	Min      int      `yaml:"min,omitempty" json:"min,omitempty"`
	FromHour int      `yaml:"from_hour,omitempty" json:"from_hour,omitempty"`
	ToHour   int      `yaml:"to_hour,omitempty" json:"to_hour,omitempty"`
}

// Achievement is an immutable catalog entry.
type Achievement struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	RewardXP    int    `yaml:"xp_reward" json:"xp_reward"`
	Rule        Rule   `yaml:"rule" json:"-"`
}

// Snapshot is the view of a user's progress that achievement rules read.
// It reflects the state after the triggering event was applied.
type Snapshot struct {
	XP               int
	Level            int
	Streak           int
	CompletedLessons int
	Unlocked         []string
}

// EventContext carries facts about the triggering event that are not
// part of the progress snapshot.
type EventContext struct {
	// At is the event time. Hour-based rules read At.Hour() so callers
	// choose the zone by the location of At.
	At                   time.Time
	PerfectLessons       int
	HighScoreSimulations int
}

func (r Rule) validate() error {
	switch r.Kind {
	case RuleFirstLesson:
		return nil
	case RuleStreak, RuleLevel, RulePerfectLessons, RuleHighScoreSimulations:
		if r.Min <= 0 {
			return fmt.Errorf("rule %s needs a positive min", r.Kind)
		}
		return nil
	case RuleTimeWindow:
		if r.FromHour < 0 || r.FromHour > 23 || r.ToHour < 0 || r.ToHour > 24 || r.FromHour == r.ToHour {
			return fmt.Errorf("rule %s has invalid hours [%d,%d)", r.Kind, r.FromHour, r.ToHour)
		}
		return nil
	default:
		return fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}

func (r Rule) met(s Snapshot, trigger Trigger, ec EventContext) bool {
	switch r.Kind {
	case RuleFirstLesson:
		return trigger == TriggerLessonCompleted && s.CompletedLessons == 1
	case RuleStreak:
		return s.Streak >= r.Min
	case RuleTimeWindow:
		if trigger != TriggerLessonCompleted || ec.At.IsZero() {
			return false
		}
		return inWindow(ec.At.Hour(), r.FromHour, r.ToHour)
	case RuleLevel:
		return s.Level >= r.Min
	case RulePerfectLessons:
		return ec.PerfectLessons >= r.Min
	case RuleHighScoreSimulations:
		return ec.HighScoreSimulations >= r.Min
	}
	return false
}

func inWindow(hour, from, to int) bool {
	if from < to {
		return hour >= from && hour < to
	}
	return hour >= from || hour < to
}

// CheckAchievements returns the achievements unlocked by this event that
// are not already in s.Unlocked, in catalog order. It has no side
// effects; the caller persists the union.
func (e *Engine) CheckAchievements(s Snapshot, trigger Trigger, ec EventContext) []Achievement {
	have := make(map[string]bool, len(s.Unlocked))
	for _, id := range s.Unlocked {
		have[id] = true
	}

	var out []Achievement
	for _, a := range e.achievements {
		if have[a.ID] {
			continue
		}
		if a.Rule.met(s, trigger, ec) {
			out = append(out, a)
			have[a.ID] = true
		}
	}
	return out
}

// TotalReward sums RewardXP over achievements.
func TotalReward(achievements []Achievement) int {
	total := 0
	for _, a := range achievements {
		total += a.RewardXP
	}
	return total
}
