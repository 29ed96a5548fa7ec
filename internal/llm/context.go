package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// Purpose labels recorded with every LLM event.
const (
	PurposeSimulationReply = "simulation-reply"
	PurposePronunciation   = "pronunciation-feedback"
)

// WithPurpose attaches a purpose label to the context for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom returns the purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
