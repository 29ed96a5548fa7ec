package simulation

import "testing"

func withUserTurns(texts ...string) History {
	h := History{{Role: RoleSystem, Text: "persona"}, {Role: RoleAgent, Text: "opening"}}
	for _, t := range texts {
		h = append(h, Turn{Role: RoleUser, Text: t}, Turn{Role: RoleAgent, Text: "..."})
	}
	return h
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		h        History
		want     int
		keys     []string
	}{
		{"base only", autoScenario, withUserTurns("MG Road"), 70, nil},
		{"negotiation needs three turns", autoScenario, withUserTurns("a", "b", "c"), 80, []string{"negotiation"}},
		{"politeness once", autoScenario, withUserTurns("please", "thank you", "Please"), 100, []string{"negotiation", "politeness"}},
		{"kannada politeness", autoScenario, withUserTurns("ದಯವಿಟ್ಟು"), 90, []string{"politeness"}},
		{"apology", roadRageScenario, withUserTurns("ನನ್ನ ತಪ್ಪು"), 100, []string{"de_escalation"}},
		{"agent words do not count", roadRageScenario, History{{Role: RoleAgent, Text: "say sorry"}}, 70, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.scenario, tt.h)
			if got.Score != tt.want {
				t.Errorf("score = %d, want %d", got.Score, tt.want)
			}
			for _, k := range tt.keys {
				if got.Feedback[k] == "" {
					t.Errorf("missing feedback %q", k)
				}
			}
			if got.Feedback["overall"] == "" {
				t.Error("missing overall feedback")
			}
		})
	}
}

func TestScoreClampsAt100(t *testing.T) {
	generous := autoScenario
	generous.Bonuses = append(generous.Bonuses, BonusRule{Key: "extra", Points: 50, Keywords: []string{"please"}})

	got := Score(generous, withUserTurns("please", "please", "please"))
	if got.Score != MaxScore {
		t.Errorf("score = %d, want clamp to %d", got.Score, MaxScore)
	}
	if got.Feedback["overall"] != "You scored 100/100. Keep practicing!" {
		t.Errorf("overall = %q", got.Feedback["overall"])
	}
}
