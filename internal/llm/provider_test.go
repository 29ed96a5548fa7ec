package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockText("ಎಲ್ಲಿಗೆ ಹೋಗಬೇಕು ಸಾರ್? [Ellige hogabeku saar?]"),
		MockResponse{Content: json.RawMessage(`{"score":80}`), Usage: Usage{InputTokens: 12, OutputTokens: 4, TotalTokens: 16}},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "Majestic"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := TextContent(resp1); got != "ಎಲ್ಲಿಗೆ ಹೋಗಬೇಕು ಸಾರ್? [Ellige hogabeku saar?]" {
		t.Fatalf("unexpected text %q", got)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Usage.InputTokens != 12 {
		t.Fatalf("expected 12 input tokens, got %d", resp2.Usage.InputTokens)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(MockText("ಸರಿ"))

	_, _ = mock.Generate(context.Background(), Request{
		System:   "You are an auto driver in Bangalore.",
		Messages: []Message{{Role: RoleAssistant, Content: "ಎಲ್ಲಿಗೆ?"}},
	})

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	last, ok := mock.LastCall()
	if !ok || last.System != "You are an auto driver in Bangalore." {
		t.Fatalf("unexpected last call %+v", last)
	}
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestTextContent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"raw text", "ನಮಸ್ಕಾರ [Namaskara]", "ನಮಸ್ಕಾರ [Namaskara]"},
		{"json quoted", `"ಬನ್ನಿ [Banni]"`, "ಬನ್ನಿ [Banni]"},
		{"padded", "  ಸರಿ \n", "ಸರಿ"},
		{"unterminated quote", `"ಸರಿ`, `"ಸರಿ`},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TextContent(&Response{Content: json.RawMessage(tt.raw)})
			if got != tt.want {
				t.Fatalf("TextContent(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
	if TextContent(nil) != "" {
		t.Fatal("expected empty text for nil response")
	}
}

func TestDecode(t *testing.T) {
	var out struct {
		Score    int    `json:"score"`
		Feedback string `json:"feedback"`
	}
	resp := &Response{Content: json.RawMessage(`{"score":85,"feedback":"Stress the second syllable."}`)}
	if err := Decode(resp, testSchema(), &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Score != 85 {
		t.Fatalf("expected 85, got %d", out.Score)
	}

	bad := &Response{Content: json.RawMessage(`{"score":140,"feedback":"x"}`)}
	var invErr *ErrInvalidResponse
	if err := Decode(bad, testSchema(), &out); !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	ctx = WithPurpose(ctx, PurposeSimulationReply)
	if p := PurposeFrom(ctx); p != "simulation-reply" {
		t.Fatalf("expected 'simulation-reply', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: "anthropic"}, true},
		{"anthropic with key", Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"openai with key", Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"openrouter without key", Config{Provider: "openrouter"}, true},
		{"gemini with key", Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}}, false},
		{"mock needs no key", Config{Provider: "mock"}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func clearLLMEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"KALIKE_LLM_PROVIDER", "KALIKE_OPENAI_API_KEY", "KALIKE_OPENAI_MODEL", "KALIKE_OPENAI_BASE_URL",
		"KALIKE_ANTHROPIC_API_KEY", "KALIKE_ANTHROPIC_MODEL", "KALIKE_GEMINI_API_KEY", "KALIKE_GEMINI_MODEL",
		"KALIKE_OPENROUTER_API_KEY", "KALIKE_OPENROUTER_MODEL",
		"OPENAI_API_KEY", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestConfigFromEnv_Explicit(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("KALIKE_LLM_PROVIDER", "anthropic")
	t.Setenv("KALIKE_ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENAI_API_KEY", "sk-ignored")

	cfg := ConfigFromEnv()
	if cfg.Provider != "anthropic" || cfg.Anthropic.APIKey != "sk-ant" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigFromEnv_Discovers(t *testing.T) {
	clearLLMEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg := ConfigFromEnv()
	if cfg.Provider != "gemini" || cfg.Gemini.APIKey != "g-key" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestConfigFromEnv_DefaultsWithoutKeys(t *testing.T) {
	clearLLMEnv(t)

	cfg := ConfigFromEnv()
	if cfg.Provider != "openai" {
		t.Fatalf("expected openai default, got %q", cfg.Provider)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock provider, got %q", p.ModelID())
	}
}
