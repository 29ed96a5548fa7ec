package simulation

import "fmt"

const (
	BaseScore = 70
	MaxScore  = 100
)

// Score evaluates a finished conversation. Each matching bonus adds its
// points once and the total is clamped to MaxScore.
func Score(s Scenario, h History) Outcome {
	score := BaseScore
	feedback := make(map[string]string)

	for _, b := range s.Bonuses {
		if !b.matches(h) {
			continue
		}
		score += b.Points
		if b.Feedback != "" {
			feedback[b.Key] = b.Feedback
		}
	}
	if score > MaxScore {
		score = MaxScore
	}

	feedback["overall"] = fmt.Sprintf("You scored %d/100. Keep practicing!", score)
	return Outcome{Score: score, Feedback: feedback}
}
