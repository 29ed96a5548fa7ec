package simulation

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type fakeTranscriber struct {
	mu      sync.Mutex
	results []string
	err     error
	hints   []string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ Audio, hint string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hints = append(f.hints, hint)
	if f.err != nil {
		return "", f.err
	}
	if len(f.results) == 0 {
		return "", nil
	}
	r := f.results[0]
	f.results = f.results[1:]
	return r, nil
}

type fakeReplies struct {
	replies []string
	err     error
	seen    []History
}

func (f *fakeReplies) GenerateReply(_ context.Context, h History) (string, error) {
	f.seen = append(f.seen, append(History(nil), h...))
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "ಹೌದಾ? [Houda?]", nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type fakeSynth struct {
	fail  bool
	calls []string
}

func (f *fakeSynth) Synthesize(_ context.Context, text, voice string) (string, error) {
	f.calls = append(f.calls, voice+":"+text)
	if f.fail {
		return "", errors.New("tts quota exceeded")
	}
	return "data:audio/mp3;base64,AAAA", nil
}

type upperFilter struct{ calls int }

func (f *upperFilter) Filter(text string, _ Scenario) string {
	f.calls++
	return strings.ToUpper(text)
}

var autoScenario = Scenario{
	ID:      "auto_driver_sim",
	Title:   "Auto Rickshaw Negotiation",
	Persona: "You are Manjunath, an auto driver in Bengaluru.",
	Opening: "ನಮಸ್ಕಾರ, ಎಲ್ಲಿಗೆ ಹೋಗಬೇಕು? [Namaskara, ellige hogabeku?]",
	Voice:   "onyx",
	EndingKeywords: map[string][]string{
		"kn": {"ಸರಿ", "ಆಯ್ತು", "ಹೋಗೋಣ"},
		"en": {"okay", "alright"},
	},
	Bonuses: []BonusRule{
		{Key: "negotiation", Points: 10, Feedback: "Good job negotiating!", MinUserTurns: 3},
		{Key: "politeness", Points: 20, Feedback: "Excellent use of polite language!",
			Keywords: []string{"ದಯವಿಟ್ಟು", "please", "ಧನ್ಯವಾದ", "thank"}},
	},
}

var roadRageScenario = Scenario{
	ID:            "road_rage_sim",
	Persona:       "You are another driver after a minor incident.",
	Opening:       "ಏಯ್! ಏನು ಮಾಡ್ತಿದ್ದೀಯಾ? [Ey! Enu madtiddiya?]",
	Voice:         "echo",
	AgeRestricted: true,
	Bonuses: []BonusRule{
		{Key: "de_escalation", Points: 30, Feedback: "Great job de-escalating the situation!",
			Keywords: []string{"ಕ್ಷಮಿಸಿ", "sorry", "ನನ್ನ ತಪ್ಪು", "mistake"}},
	},
}
