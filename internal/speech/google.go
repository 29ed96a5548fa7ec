package speech

import (
	"context"
	"fmt"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/simulation"
)

type recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type cloudRecognizer struct{ c *gspeech.Client }

func (r cloudRecognizer) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return r.c.Recognize(ctx, req)
}

func (r cloudRecognizer) Close() error { return r.c.Close() }

// GoogleTranscriber uses Cloud Speech synchronous recognition, which
// suits the short utterances of a roleplay turn.
type GoogleTranscriber struct {
	rec      recognizer
	language string
	log      *logger.Logger
}

func NewGoogleTranscriber(ctx context.Context, cfg Config, log *logger.Logger) (*GoogleTranscriber, error) {
	var opts []option.ClientOption
	if cfg.GoogleCredentials != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
	}
	c, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return newGoogleTranscriber(cloudRecognizer{c: c}, log), nil
}

func newGoogleTranscriber(rec recognizer, log *logger.Logger) *GoogleTranscriber {
	if log == nil {
		log = logger.Nop()
	}
	return &GoogleTranscriber{
		rec:      rec,
		language: GoogleLanguage,
		log:      log.With("component", "stt", "provider", "google"),
	}
}

// Transcribe ignores short hints like "kn" in favour of the configured
// locale unless the hint is already a full locale.
func (g *GoogleTranscriber) Transcribe(ctx context.Context, audio simulation.Audio, languageHint string) (string, error) {
	if len(audio.Data) == 0 {
		return "", nil
	}
	lang := g.language
	if strings.Contains(languageHint, "-") {
		lang = languageHint
	}

	resp, err := g.rec.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   inferEncoding(audio.MIMEType, audio.Filename),
			LanguageCode:               lang,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio.Data},
		},
	})
	if err != nil {
		g.log.Warn("transcription failed", "error", err)
		return "", nil
	}

	var parts []string
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

func (g *GoogleTranscriber) Close() error {
	return g.rec.Close()
}

func inferEncoding(mimeType, filename string) speechpb.RecognitionConfig_AudioEncoding {
	m := strings.ToLower(mimeType)
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(m, "wav") || strings.HasSuffix(name, ".wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.Contains(m, "flac") || strings.HasSuffix(name, ".flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.Contains(m, "mp3") || strings.Contains(m, "mpeg") || strings.HasSuffix(name, ".mp3"):
		return speechpb.RecognitionConfig_MP3
	case strings.Contains(m, "ogg") || strings.HasSuffix(name, ".ogg") || strings.HasSuffix(name, ".opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.Contains(m, "webm") || strings.HasSuffix(name, ".webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	}
	return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
}
