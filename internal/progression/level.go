package progression

import "fmt"

// LevelTable maps levels to their minimum XP. Level 1 is index 0.
type LevelTable struct {
	thresholds []int
}

// NewLevelTable validates and copies thresholds. The first entry is the
// level 1 threshold and entries must be strictly increasing.
func NewLevelTable(thresholds []int) (LevelTable, error) {
	if len(thresholds) == 0 {
		return LevelTable{}, fmt.Errorf("level table is empty")
	}
	for i, t := range thresholds {
		if t < 0 {
			return LevelTable{}, fmt.Errorf("level %d: negative threshold %d", i+1, t)
		}
		if i > 0 && t <= thresholds[i-1] {
			return LevelTable{}, fmt.Errorf("level %d: threshold %d not above level %d (%d)",
				i+1, t, i, thresholds[i-1])
		}
	}
	cp := make([]int, len(thresholds))
	copy(cp, thresholds)
	return LevelTable{thresholds: cp}, nil
}

// MaxLevel returns the highest defined level.
func (t LevelTable) MaxLevel() int {
	return len(t.thresholds)
}

// Threshold returns the minimum XP for level, or false when the level is
// not defined.
func (t LevelTable) Threshold(level int) (int, bool) {
	if level < 1 || level > len(t.thresholds) {
		return 0, false
	}
	return t.thresholds[level-1], true
}

// LevelFor returns the highest level whose threshold is at or below xp.
func (t LevelTable) LevelFor(xp int) (int, error) {
	if xp < 0 {
		return 0, invalidInput("negative xp %d", xp)
	}
	level := 1
	for i, min := range t.thresholds {
		if xp >= min {
			level = i + 1
		}
	}
	return level, nil
}

// XPToNextLevel returns how much XP is missing for the next level and
// that level's total. At the max level both values are zero.
func (t LevelTable) XPToNextLevel(xp int) (remaining, nextTotal int, err error) {
	level, err := t.LevelFor(xp)
	if err != nil {
		return 0, 0, err
	}
	if level >= t.MaxLevel() {
		return 0, 0, nil
	}
	next := t.thresholds[level]
	return next - xp, next, nil
}

// ProgressPercent reports how far xp is between the current level's
// threshold and the next one. Max level reports 100.
func (t LevelTable) ProgressPercent(xp int) (float64, error) {
	level, err := t.LevelFor(xp)
	if err != nil {
		return 0, err
	}
	if level >= t.MaxLevel() {
		return 100, nil
	}
	cur, next := t.thresholds[level-1], t.thresholds[level]
	return float64(xp-cur) / float64(next-cur) * 100, nil
}
