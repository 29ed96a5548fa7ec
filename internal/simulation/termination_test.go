package simulation

import "testing"

func historyOf(n int, text string) History {
	h := History{{Role: RoleSystem, Text: "persona"}}
	for len(h) < n {
		role := RoleUser
		if len(h)%2 == 1 {
			role = RoleAgent
		}
		h = append(h, Turn{Role: role, Text: text})
	}
	return h
}

func TestShouldEnd(t *testing.T) {
	tests := []struct {
		name string
		h    History
		want bool
	}{
		{"21 turns no keyword", historyOf(21, "innu swalpa kammi maadi"), true},
		{"20 turns no keyword", historyOf(20, "innu swalpa kammi maadi"), false},
		{"short with kannada keyword", historyOf(4, "ಸರಿ, ಹೋಗೋಣ"), true},
		{"keyword is case insensitive", historyOf(3, "OKAY boss"), true},
		{"short without keyword", historyOf(5, "nooru rupaayi"), false},
		{"empty", nil, false},
	}
	for _, tt := range tests {
		if got := ShouldEnd(autoScenario, tt.h); got != tt.want {
			t.Errorf("%s: ShouldEnd = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestShouldEndOnlyLastTurn(t *testing.T) {
	h := historyOf(4, "okay")
	h = append(h, Turn{Role: RoleAgent, Text: "innu yaake?"})
	if ShouldEnd(autoScenario, h) {
		t.Error("keyword in earlier turn should not end the conversation")
	}
}

func TestShouldEndWithoutKeywords(t *testing.T) {
	for n := 1; n <= MaxTurns; n++ {
		if ShouldEnd(roadRageScenario, historyOf(n, "sari okay")) {
			t.Fatalf("road rage has no ending keywords but ended at %d turns", n)
		}
	}
}
