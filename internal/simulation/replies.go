package simulation

import (
	"context"
	"fmt"

	"github.com/kalike-app/kalike/internal/llm"
)

// LLMReplies generates agent replies with an llm.Provider.
type LLMReplies struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
}

// NewLLMReplies uses the conversational defaults: temperature 0.7 and a
// 150 token cap so replies stay short enough to speak.
func NewLLMReplies(p llm.Provider) *LLMReplies {
	return &LLMReplies{provider: p, temperature: 0.7, maxTokens: 150}
}

func (r *LLMReplies) GenerateReply(ctx context.Context, h History) (string, error) {
	if !h.hasPersona() {
		return "", fmt.Errorf("history must start with the persona turn")
	}

	req := llm.Request{
		System:      h[0].Text,
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	}
	for _, t := range h[1:] {
		role := llm.RoleUser
		if t.Role == RoleAgent {
			role = llm.RoleAssistant
		}
		req.Messages = append(req.Messages, llm.Message{Role: role, Content: t.Text})
	}

	resp, err := r.provider.Generate(llm.WithPurpose(ctx, llm.PurposeSimulationReply), req)
	if err != nil {
		return "", err
	}
	return llm.TextContent(resp), nil
}
