package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/simulation"
)

func newOpenAIClient(apiKey, baseURL string) (*openai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required for speech")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(config), nil
}

// OpenAITranscriber calls the OpenAI transcription endpoint, retrying
// once with the fallback model when the primary model fails.
type OpenAITranscriber struct {
	client *openai.Client
	models []string
	log    *logger.Logger
}

func NewOpenAITranscriber(cfg Config, log *logger.Logger) (*OpenAITranscriber, error) {
	client, err := newOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if err != nil {
		return nil, err
	}
	return newOpenAITranscriber(client, cfg.TranscribeModel, log), nil
}

func newOpenAITranscriber(client *openai.Client, model string, log *logger.Logger) *OpenAITranscriber {
	if log == nil {
		log = logger.Nop()
	}
	return &OpenAITranscriber{
		client: client,
		models: modelChain(model, DefaultTranscribeModel, FallbackTranscribeModel),
		log:    log.With("component", "stt", "provider", "openai"),
	}
}

// Transcribe returns the recognized text. Every failure is logged and
// reported as empty text so callers treat it as unintelligible input.
func (t *OpenAITranscriber) Transcribe(ctx context.Context, audio simulation.Audio, languageHint string) (string, error) {
	if len(audio.Data) == 0 {
		return "", nil
	}
	name := audio.Filename
	if name == "" {
		name = "audio" + extensionFor(audio.MIMEType)
	}

	for _, model := range t.models {
		resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
			Model:    model,
			Reader:   bytes.NewReader(audio.Data),
			FilePath: name,
			Language: languageHint,
		})
		if err == nil {
			return strings.TrimSpace(resp.Text), nil
		}
		if ctx.Err() != nil {
			return "", nil
		}
		t.log.Warn("transcription failed", "model", model, "error", err)
	}
	return "", nil
}

// OpenAISynthesizer renders MP3 speech and returns it as a data URL.
type OpenAISynthesizer struct {
	client *openai.Client
	models []string
	log    *logger.Logger
}

func NewOpenAISynthesizer(cfg Config, log *logger.Logger) (*OpenAISynthesizer, error) {
	client, err := newOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if err != nil {
		return nil, err
	}
	return newOpenAISynthesizer(client, cfg.SpeechModel, log), nil
}

func newOpenAISynthesizer(client *openai.Client, model string, log *logger.Logger) *OpenAISynthesizer {
	if log == nil {
		log = logger.Nop()
	}
	return &OpenAISynthesizer{
		client: client,
		models: modelChain(model, DefaultSpeechModel, FallbackSpeechModel),
		log:    log.With("component", "tts", "provider", "openai"),
	}
}

func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, voice string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text to synthesize")
	}
	if voice == "" {
		voice = DefaultVoice
	}

	var lastErr error
	for _, model := range s.models {
		audio, err := s.speak(ctx, model, text, voice)
		if err == nil {
			return "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio), nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		s.log.Warn("speech synthesis failed", "model", model, "voice", voice, "error", err)
	}
	return "", fmt.Errorf("synthesize: %w", lastErr)
}

func (s *OpenAISynthesizer) speak(ctx context.Context, model, text, voice string) ([]byte, error) {
	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read speech body: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty speech body")
	}
	return audio, nil
}

// modelChain returns the configured model followed by the fallback,
// without duplicates.
func modelChain(configured, primary, fallback string) []string {
	if configured == "" {
		configured = primary
	}
	if configured == fallback {
		return []string{fallback}
	}
	return []string{configured, fallback}
}

func extensionFor(mimeType string) string {
	m := strings.ToLower(mimeType)
	switch {
	case strings.Contains(m, "wav"):
		return ".wav"
	case strings.Contains(m, "mpeg"), strings.Contains(m, "mp3"):
		return ".mp3"
	case strings.Contains(m, "ogg"):
		return ".ogg"
	case strings.Contains(m, "mp4"), strings.Contains(m, "m4a"):
		return ".m4a"
	case strings.Contains(m, "flac"):
		return ".flac"
	}
	return ".webm"
}
