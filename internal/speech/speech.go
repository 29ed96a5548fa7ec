// Package speech adapts transcription, synthesis and pronunciation
// scoring providers to the collaborator interfaces the simulation
// controller and the HTTP API use.
package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalike-app/kalike/internal/platform/envutil"
	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/simulation"
)

const (
	// DefaultVoice is used when a caller or scenario names no voice.
	DefaultVoice = "alloy"

	DefaultTranscribeModel  = "gpt-4o-mini-transcribe"
	FallbackTranscribeModel = "whisper-1"
	DefaultSpeechModel      = "gpt-4o-mini-tts"
	FallbackSpeechModel     = "tts-1"

	// GoogleLanguage is the Cloud Speech locale for Kannada.
	GoogleLanguage = "kn-IN"
)

// Config selects and configures the speech providers.
type Config struct {
	// STTProvider is "openai", "google" or "passthrough".
	STTProvider string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	TranscribeModel string
	SpeechModel     string

	// GoogleCredentials is a service account file; empty uses the
	// default application credentials.
	GoogleCredentials string
}

// ConfigFromEnv reads KALIKE_STT_PROVIDER and the OpenAI key shared with
// the llm package, falling back to OPENAI_API_KEY.
func ConfigFromEnv() Config {
	return Config{
		STTProvider:       envutil.String("KALIKE_STT_PROVIDER", "openai"),
		OpenAIAPIKey:      envutil.String("KALIKE_OPENAI_API_KEY", envutil.String("OPENAI_API_KEY", "")),
		OpenAIBaseURL:     envutil.String("KALIKE_OPENAI_BASE_URL", ""),
		TranscribeModel:   envutil.String("KALIKE_TRANSCRIBE_MODEL", DefaultTranscribeModel),
		SpeechModel:       envutil.String("KALIKE_TTS_MODEL", DefaultSpeechModel),
		GoogleCredentials: envutil.String("GOOGLE_APPLICATION_CREDENTIALS", ""),
	}
}

// NewTranscriber builds the transcriber named by cfg.STTProvider.
func NewTranscriber(ctx context.Context, cfg Config, log *logger.Logger) (simulation.Transcriber, error) {
	switch strings.ToLower(cfg.STTProvider) {
	case "", "openai":
		return NewOpenAITranscriber(cfg, log)
	case "google":
		return NewGoogleTranscriber(ctx, cfg, log)
	case "passthrough":
		return PassThrough{}, nil
	default:
		return nil, fmt.Errorf("unknown STT provider %q", cfg.STTProvider)
	}
}

// PassThrough treats the audio payload as already-transcribed UTF-8
// text. The terminal rehearsal uses it for typed turns.
type PassThrough struct{}

func (PassThrough) Transcribe(_ context.Context, audio simulation.Audio, _ string) (string, error) {
	return strings.TrimSpace(string(audio.Data)), nil
}
