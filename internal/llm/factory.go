package llm

import (
	"context"
	"fmt"

	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/store"
)

// NewProvider builds the configured provider wrapped as
// caller -> timeout -> retry -> logging -> base.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo, log *logger.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		return NewMockProvider(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, events, log)
	retried := WithRetry(logged, cfg.Retry)
	return WithTimeout(retried, cfg.Timeout), nil
}

// NewProviderFromEnv is NewProvider over ConfigFromEnv.
func NewProviderFromEnv(ctx context.Context, events store.EventRepo, log *logger.Logger) (Provider, error) {
	return NewProvider(ctx, ConfigFromEnv(), events, log)
}
