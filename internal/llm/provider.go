// Package llm talks to chat-completion providers. Simulation replies use
// plain text; pronunciation feedback uses a JSON schema that each
// provider enforces with its native structured-output mechanism.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider generates a completion for a Request.
type Provider interface {
	// Generate sends the request and returns the provider's answer. When
	// req.Schema is set the Content is JSON validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider calls.
	ModelID() string
}

// Request describes one completion call.
type Request struct {
	// System carries the persona or task instructions.
	System string

	// Messages is the conversation so far, oldest first. Roleplay
	// requests usually start with the assistant's opening line.
	Messages []Message

	// Schema, when set, asks for JSON conforming to it.
	Schema *Schema

	MaxTokens int

	// Temperature in 0.0..1.0. Zero leaves the provider default.
	Temperature float64
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response holds the model output.
type Response struct {
	// Content is validated JSON when a Schema was requested, otherwise
	// the reply text as returned by the provider.
	Content json.RawMessage

	Usage Usage
	Model string

	// StopReason is one of the Stop* values.
	StopReason string
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopError     = "error"
)

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// completion is what a provider extracted from its SDK response, before
// the checks every provider shares.
type completion struct {
	text  string
	usage Usage
	model string
	stop  string
}

// finish rejects empty and truncated structured output, validates it
// against the request schema and builds the Response.
func (req Request) finish(c completion) (*Response, error) {
	if req.Schema == nil {
		c.text = strings.TrimSpace(c.text)
	}
	content := json.RawMessage(c.text)
	if strings.TrimSpace(c.text) == "" {
		return nil, invalid(content, "empty completion from %s", c.model)
	}
	if req.Schema != nil {
		if c.stop == StopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := req.Schema.Check(content); err != nil {
			return nil, err
		}
	}
	if c.stop == "" {
		c.stop = StopEnd
	}
	return &Response{Content: content, Usage: c.usage, Model: c.model, StopReason: c.stop}, nil
}

// stopReason looks up a provider's finish reason, treating unknown values
// as a normal end.
func stopReason[K comparable](table map[K]string, reason K) string {
	if s, ok := table[reason]; ok {
		return s
	}
	return StopEnd
}

// resolveModel maps a friendly model name to a provider model ID.
func resolveModel(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}
