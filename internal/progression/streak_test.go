package progression

import (
	"testing"
	"time"
)

func TestUpdateStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		lastActive time.Time
		want       bool
	}{
		{"never active", time.Time{}, true},
		{"35 hours ago", now.Add(-35 * time.Hour), true},
		{"exactly 36 hours", now.Add(-36 * time.Hour), true},
		{"37 hours ago", now.Add(-37 * time.Hour), false},
		{"a week ago", now.Add(-7 * 24 * time.Hour), false},
	}
	for _, tt := range tests {
		if got := UpdateStreak(tt.lastActive, now); got != tt.want {
			t.Errorf("%s: UpdateStreak = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if got := NextStreak(4, now.Add(-35*time.Hour), now); got != 5 {
		t.Errorf("continued streak = %d, want 5", got)
	}
	if got := NextStreak(4, now.Add(-37*time.Hour), now); got != 1 {
		t.Errorf("broken streak = %d, want 1", got)
	}
	if got := NextStreak(0, time.Time{}, now); got != 1 {
		t.Errorf("first activity = %d, want 1", got)
	}
}
