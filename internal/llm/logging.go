package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/store"
)

// LoggingProvider records every request as an LLM event and a log line.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
	log      *logger.Logger
}

// WithLogging wraps p. events and log may be nil.
func WithLogging(p Provider, providerName string, events store.EventRepo, log *logger.Logger) Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &LoggingProvider{
		inner:    p,
		provider: providerName,
		events:   events,
		log:      log.With("component", "llm", "provider", providerName),
	}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}
	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}
	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Warn("llm request failed", "purpose", purpose, "model", data.Model,
			"latency_ms", data.LatencyMs, "error", err)
	} else {
		l.log.Debug("llm request", "purpose", purpose, "model", data.Model,
			"latency_ms", data.LatencyMs, "input_tokens", data.InputTokens, "output_tokens", data.OutputTokens)
	}

	if l.events != nil {
		if logErr := l.events.AppendLLMRequest(ctx, data); logErr != nil {
			l.log.Warn("failed to record llm event", "error", logErr)
		}
	}
	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest renders the request for `kalike llm view`.
func serializeRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}
