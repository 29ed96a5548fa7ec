package simulation

import (
	"strings"
	"time"
)

// Role identifies who spoke a turn.
type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleAgent  Role = "agent"
)

// Turn is one utterance in a roleplay.
type Turn struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"timestamp"`
}

// History is the ordered, append-only transcript of a session. A well
// formed history starts with exactly one system turn holding the persona.
type History []Turn

// Count returns the number of turns with the given role.
func (h History) Count(role Role) int {
	n := 0
	for _, t := range h {
		if t.Role == role {
			n++
		}
	}
	return n
}

// Last returns the most recent turn.
func (h History) Last() (Turn, bool) {
	if len(h) == 0 {
		return Turn{}, false
	}
	return h[len(h)-1], true
}

// UserText joins every user turn, lowercased, for keyword scans.
func (h History) UserText() string {
	var parts []string
	for _, t := range h {
		if t.Role == RoleUser {
			parts = append(parts, t.Text)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}

func (h History) hasPersona() bool {
	return len(h) > 0 && h[0].Role == RoleSystem
}

// Phase is the controller state of a session.
type Phase string

const (
	PhaseGreeting         Phase = "greeting"
	PhaseAwaitingUserTurn Phase = "awaiting_user_turn"
	PhaseProcessingTurn   Phase = "processing_turn"
	PhaseEnded            Phase = "ended"
)

// Session is the state of one roleplay. The controller takes a Session
// by value and returns the updated copy; callers own storage.
type Session struct {
	ID         string    `json:"id"`
	ScenarioID string    `json:"scenario_id"`
	UserID     string    `json:"user_id,omitempty"`
	Phase      Phase     `json:"phase"`
	History    History   `json:"history"`
	Outcome    *Outcome  `json:"outcome,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a copy whose history can be appended to without
// aliasing the original.
func (s Session) Clone() Session {
	cp := s
	cp.History = append(History(nil), s.History...)
	if s.Outcome != nil {
		o := *s.Outcome
		o.Feedback = make(map[string]string, len(s.Outcome.Feedback))
		for k, v := range s.Outcome.Feedback {
			o.Feedback[k] = v
		}
		cp.Outcome = &o
	}
	return cp
}

// Outcome is the score and feedback computed when a session ends.
type Outcome struct {
	Score    int               `json:"score"`
	Feedback map[string]string `json:"feedback"`
}

// Audio is a recorded user utterance.
type Audio struct {
	Data     []byte
	MIMEType string
	Filename string
}

// Reply is what the agent said, with a synthesized audio reference when
// synthesis succeeded.
type Reply struct {
	Text     string `json:"text"`
	AudioURL string `json:"audio_url,omitempty"`
}

// TurnResult describes one processed user turn.
type TurnResult struct {
	UserText string   `json:"user_text"`
	Reply    Reply    `json:"reply"`
	Ended    bool     `json:"end_conversation"`
	Outcome  *Outcome `json:"outcome,omitempty"`
}
