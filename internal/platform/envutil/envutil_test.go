package envutil

import (
	"testing"
	"time"
)

func TestInt(t *testing.T) {
	t.Setenv("KALIKE_TEST_INT", "42")
	if got := Int("KALIKE_TEST_INT", 7); got != 42 {
		t.Errorf("Int = %d, want 42", got)
	}
	t.Setenv("KALIKE_TEST_INT", "nope")
	if got := Int("KALIKE_TEST_INT", 7); got != 7 {
		t.Errorf("Int(invalid) = %d, want 7", got)
	}
}

func TestBoolAndDuration(t *testing.T) {
	t.Setenv("KALIKE_TEST_BOOL", "on")
	if !Bool("KALIKE_TEST_BOOL", false) {
		t.Error("Bool(on) = false")
	}
	t.Setenv("KALIKE_TEST_DUR", "90s")
	if got := Duration("KALIKE_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("Duration = %s", got)
	}
	if got := String("KALIKE_TEST_UNSET", "x"); got != "x" {
		t.Errorf("String default = %q", got)
	}
}
