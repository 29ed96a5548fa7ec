package progression

import (
	"errors"
	"testing"
)

func TestLevelForThresholds(t *testing.T) {
	e := newTestEngine(t)
	for i, min := range testThresholds {
		got, err := e.LevelFor(min)
		if err != nil {
			t.Fatalf("LevelFor(%d): %v", min, err)
		}
		if got != i+1 {
			t.Errorf("LevelFor(%d) = %d, want %d", min, got, i+1)
		}
	}
}

func TestLevelForMonotonic(t *testing.T) {
	e := newTestEngine(t)
	prev := 0
	for xp := 0; xp <= 12000; xp += 7 {
		got, err := e.LevelFor(xp)
		if err != nil {
			t.Fatalf("LevelFor(%d): %v", xp, err)
		}
		if got < prev {
			t.Fatalf("LevelFor(%d) = %d after %d", xp, got, prev)
		}
		prev = got
	}
}

func TestLevelForBetweenThresholds(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{999, 4},
		{9999, 9},
		{50000, 10},
	}
	for _, tt := range tests {
		got, _ := e.LevelFor(tt.xp)
		if got != tt.want {
			t.Errorf("LevelFor(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestLevelForNegative(t *testing.T) {
	e := newTestEngine(t)
	if _, err := e.LevelFor(-1); !errors.Is(err, ErrInvalidProgressionInput) {
		t.Errorf("LevelFor(-1) err = %v, want ErrInvalidProgressionInput", err)
	}
}

func TestXPToNextLevel(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		xp            int
		wantRemaining int
		wantNext      int
	}{
		{0, 100, 100},
		{150, 100, 250},
		{9999, 1, 10000},
		{10000, 0, 0},
		{25000, 0, 0},
	}
	for _, tt := range tests {
		rem, next, err := e.XPToNextLevel(tt.xp)
		if err != nil {
			t.Fatalf("XPToNextLevel(%d): %v", tt.xp, err)
		}
		if rem != tt.wantRemaining || next != tt.wantNext {
			t.Errorf("XPToNextLevel(%d) = (%d, %d), want (%d, %d)",
				tt.xp, rem, next, tt.wantRemaining, tt.wantNext)
		}
	}
}

func TestProgressPercent(t *testing.T) {
	levels, _ := NewLevelTable(testThresholds)
	got, _ := levels.ProgressPercent(175)
	if got != 50 {
		t.Errorf("ProgressPercent(175) = %v, want 50", got)
	}
	got, _ = levels.ProgressPercent(10000)
	if got != 100 {
		t.Errorf("ProgressPercent(max) = %v, want 100", got)
	}
}

func TestNewLevelTableRejectsNonIncreasing(t *testing.T) {
	cases := [][]int{
		nil,
		{0, 100, 100},
		{0, 50, 40},
		{-5, 10},
	}
	for _, c := range cases {
		if _, err := NewLevelTable(c); err == nil {
			t.Errorf("NewLevelTable(%v) = nil error", c)
		}
	}
}
