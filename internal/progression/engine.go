// Package progression computes levels, lesson XP, streaks and
// achievement unlocks. Everything here is deterministic and free of I/O;
// callers load the catalogs once and persist the results.
package progression

import "fmt"

// Engine bundles the immutable level table, XP constants and achievement
// catalog.
type Engine struct {
	levels       LevelTable
	xp           XPRules
	achievements []Achievement
	byID         map[string]Achievement
}

// NewEngine validates the achievement catalog and returns an Engine.
func NewEngine(levels LevelTable, xp XPRules, achievements []Achievement) (*Engine, error) {
	if levels.MaxLevel() == 0 {
		return nil, fmt.Errorf("engine needs a level table")
	}
	if xp.LessonCompletion < 0 || xp.PerfectLesson < xp.LessonCompletion {
		return nil, fmt.Errorf("perfect lesson xp (%d) must be at least completion xp (%d)",
			xp.PerfectLesson, xp.LessonCompletion)
	}

	byID := make(map[string]Achievement, len(achievements))
	for _, a := range achievements {
		if a.ID == "" {
			return nil, fmt.Errorf("achievement %q has no id", a.Name)
		}
		if _, dup := byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate achievement %q", a.ID)
		}
		if a.RewardXP < 0 {
			return nil, fmt.Errorf("achievement %q: negative reward", a.ID)
		}
		if err := a.Rule.validate(); err != nil {
			return nil, fmt.Errorf("achievement %q: %w", a.ID, err)
		}
		byID[a.ID] = a
	}

	cp := make([]Achievement, len(achievements))
	copy(cp, achievements)
	return &Engine{levels: levels, xp: xp, achievements: cp, byID: byID}, nil
}

func (e *Engine) Levels() LevelTable { return e.levels }

func (e *Engine) XPRules() XPRules { return e.xp }

// Achievements returns a copy of the catalog in rule order.
func (e *Engine) Achievements() []Achievement {
	cp := make([]Achievement, len(e.achievements))
	copy(cp, e.achievements)
	return cp
}

// Achievement looks up a catalog entry by ID.
func (e *Engine) Achievement(id string) (Achievement, bool) {
	a, ok := e.byID[id]
	return a, ok
}

func (e *Engine) LevelFor(xp int) (int, error) {
	return e.levels.LevelFor(xp)
}

func (e *Engine) XPToNextLevel(xp int) (remaining, nextTotal int, err error) {
	return e.levels.XPToNextLevel(xp)
}

func (e *Engine) AwardLessonXP(score, timeSpentSeconds int, firstAttempt bool) (int, error) {
	return e.xp.AwardLessonXP(score, timeSpentSeconds, firstAttempt)
}
