package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/kalike-app/kalike/internal/platform/envutil"
)

// Config selects a provider and how calls to it are retried and bounded.
type Config struct {
	// Provider is "openai", "anthropic", "gemini", "openrouter" or "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including its retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig shapes the exponential backoff between attempts.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig uses OpenAI, which also serves transcription and speech.
// Replies are spoken back in a live conversation, so waits stay short.
func DefaultConfig() Config {
	return Config{
		Provider:   "openai",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2,
		},
		Timeout: 20 * time.Second,
	}
}

// apiKey returns the key field of the named provider.
func (c *Config) apiKey(provider string) *string {
	switch provider {
	case "openai":
		return &c.OpenAI.APIKey
	case "anthropic":
		return &c.Anthropic.APIKey
	case "gemini":
		return &c.Gemini.APIKey
	case "openrouter":
		return &c.OpenRouter.APIKey
	}
	return nil
}

// keyVars lists each provider's KALIKE_ key variable and the vendor's
// standard name, in discovery order.
var keyVars = []struct{ provider, kalike, vendor string }{
	{"openai", "KALIKE_OPENAI_API_KEY", "OPENAI_API_KEY"},
	{"gemini", "KALIKE_GEMINI_API_KEY", "GEMINI_API_KEY"},
	{"anthropic", "KALIKE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
	{"openrouter", "KALIKE_OPENROUTER_API_KEY", "OPENROUTER_API_KEY"},
}

// ConfigFromEnv reads KALIKE_* variables over the defaults. When no
// KALIKE_ key is set and the provider is not "mock" it falls back to
// DiscoverConfig.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Provider = envutil.String("KALIKE_LLM_PROVIDER", cfg.Provider)
	cfg.Anthropic.Model = envutil.String("KALIKE_ANTHROPIC_MODEL", cfg.Anthropic.Model)
	cfg.OpenAI.Model = envutil.String("KALIKE_OPENAI_MODEL", cfg.OpenAI.Model)
	cfg.OpenAI.BaseURL = envutil.String("KALIKE_OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.Gemini.Model = envutil.String("KALIKE_GEMINI_MODEL", cfg.Gemini.Model)
	cfg.OpenRouter.Model = envutil.String("KALIKE_OPENROUTER_MODEL", cfg.OpenRouter.Model)
	cfg.Timeout = envutil.Duration("KALIKE_LLM_TIMEOUT", cfg.Timeout)

	explicit := false
	for _, kv := range keyVars {
		if v := os.Getenv(kv.kalike); v != "" {
			*cfg.apiKey(kv.provider) = v
			explicit = true
		}
	}
	if explicit || cfg.Provider == "mock" {
		return cfg
	}
	if discovered, ok := DiscoverConfig(); ok {
		return discovered
	}
	return cfg
}

// DiscoverConfig returns a Config for the first vendor key variable that
// is set, probing OpenAI first.
func DiscoverConfig() (Config, bool) {
	for _, kv := range keyVars {
		if v := os.Getenv(kv.vendor); v != "" {
			cfg := DefaultConfig()
			cfg.Provider = kv.provider
			*cfg.apiKey(kv.provider) = v
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	if c.Provider == "mock" {
		return nil
	}
	key := c.apiKey(c.Provider)
	if key == nil {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if *key == "" {
		for _, kv := range keyVars {
			if kv.provider == c.Provider {
				return fmt.Errorf("%s is required for the %s provider", kv.kalike, c.Provider)
			}
		}
	}
	return nil
}
