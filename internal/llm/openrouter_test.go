package llm

import "testing"

func TestNewOpenRouterProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     OpenRouterConfig
		wantID  string
		wantErr bool
	}{
		{"default model", OpenRouterConfig{APIKey: "sk-or-test", Model: "google/gemini-2.0-flash-exp"}, "google/gemini-2.0-flash-exp", false},
		{"ids pass through", OpenRouterConfig{APIKey: "sk-or-test", Model: "anthropic/claude-3-haiku"}, "anthropic/claude-3-haiku", false},
		{"custom base url", OpenRouterConfig{APIKey: "sk-or-test", Model: "meta-llama/llama-3-8b", BaseURL: "https://gateway.example/v1"}, "meta-llama/llama-3-8b", false},
		{"missing key", OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewOpenRouterProvider(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.ModelID() != tt.wantID {
				t.Fatalf("model = %q, want %q", p.ModelID(), tt.wantID)
			}
		})
	}
}

func TestNewProvider_OpenRouter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "openrouter"
	cfg.OpenRouter.APIKey = "sk-or-test"

	p, err := NewProvider(t.Context(), cfg, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "google/gemini-2.0-flash-exp" {
		t.Fatalf("unexpected model %q", p.ModelID())
	}
}
