package progression

import "time"

// StreakWindow is the longest gap between activities that keeps a
// streak alive.
const StreakWindow = 36 * time.Hour

// UpdateStreak reports whether activity at now continues a streak last
// touched at lastActive. A zero lastActive always continues.
func UpdateStreak(lastActive, now time.Time) bool {
	if lastActive.IsZero() {
		return true
	}
	return now.Sub(lastActive) <= StreakWindow
}

// NextStreak applies UpdateStreak to a current streak value.
func NextStreak(current int, lastActive, now time.Time) int {
	if current < 0 {
		current = 0
	}
	if UpdateStreak(lastActive, now) {
		return current + 1
	}
	return 1
}
