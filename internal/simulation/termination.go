package simulation

// MaxTurns caps a conversation. A history longer than this ends the
// session whatever was said.
const MaxTurns = 20

// ShouldEnd reports whether the conversation is over: the history
// exceeds MaxTurns, or the latest turn contains one of the scenario's
// ending keywords in any language.
func ShouldEnd(s Scenario, h History) bool {
	if len(h) > MaxTurns {
		return true
	}
	last, ok := h.Last()
	if !ok {
		return false
	}
	for _, phrases := range s.EndingKeywords {
		if containsAny(last.Text, phrases) {
			return true
		}
	}
	return false
}
