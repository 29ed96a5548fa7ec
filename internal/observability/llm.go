package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kalike-app/kalike/internal/llm"
)

const tracerName = "github.com/kalike-app/kalike/internal/llm"

// instrumentedProvider records a span and metrics around each call.
type instrumentedProvider struct {
	inner   llm.Provider
	metrics *Metrics
	tracer  trace.Tracer
}

// InstrumentProvider wraps p so every Generate call is traced and
// counted by purpose.
func InstrumentProvider(p llm.Provider, m *Metrics) llm.Provider {
	return &instrumentedProvider{inner: p, metrics: m, tracer: otel.Tracer(tracerName)}
}

func (p *instrumentedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	purpose := llm.PurposeFrom(ctx)
	ctx, span := p.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.purpose", purpose),
		attribute.String("llm.model", p.inner.ModelID()),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	start := time.Now()
	resp, err := p.inner.Generate(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.metrics.ObserveLLM(purpose, false, elapsed, 0, 0)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
		attribute.String("llm.stop_reason", resp.StopReason),
	)
	p.metrics.ObserveLLM(purpose, true, elapsed, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	return resp, nil
}

func (p *instrumentedProvider) ModelID() string { return p.inner.ModelID() }
