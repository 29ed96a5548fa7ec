package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/kalike-app/kalike/internal/llm"
	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/simulation"
)

// Evaluation is the verdict on one pronunciation attempt.
type Evaluation struct {
	AccuracyScore int    `json:"accuracy_score"`
	Feedback      string `json:"feedback"`
	Correct       bool   `json:"correct"`
	Transcription string `json:"transcription,omitempty"`
}

// FailedEvaluation is returned whenever scoring cannot complete.
var FailedEvaluation = Evaluation{AccuracyScore: 0, Feedback: "Could not evaluate pronunciation", Correct: false}

var pronunciationSchema = &llm.Schema{
	Name:        "pronunciation-feedback",
	Description: "Pronunciation accuracy for a spoken Kannada phrase",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"accuracy_score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
			"feedback":       map[string]any{"type": "string"},
			"correct":        map[string]any{"type": "boolean"},
		},
		"required":             []any{"accuracy_score", "feedback", "correct"},
		"additionalProperties": false,
	},
}

const pronunciationSystem = `You are a Kannada pronunciation coach. You compare the phrase a learner
was asked to say with a transcription of what they actually said.`

// PronunciationEvaluator transcribes a learner's recording and asks the
// language model to compare it with the expected phrase.
type PronunciationEvaluator struct {
	stt      simulation.Transcriber
	provider llm.Provider
	log      *logger.Logger
}

func NewPronunciationEvaluator(stt simulation.Transcriber, provider llm.Provider, log *logger.Logger) *PronunciationEvaluator {
	if log == nil {
		log = logger.Nop()
	}
	return &PronunciationEvaluator{stt: stt, provider: provider, log: log.With("component", "pronunciation")}
}

// Evaluate never fails; problems yield FailedEvaluation.
func (e *PronunciationEvaluator) Evaluate(ctx context.Context, audio simulation.Audio, original string) Evaluation {
	heard, err := e.stt.Transcribe(ctx, audio, simulation.DefaultLanguage)
	if err != nil {
		e.log.Warn("pronunciation transcription failed", "error", err)
		return FailedEvaluation
	}
	heard = strings.TrimSpace(heard)

	resp, err := e.provider.Generate(llm.WithPurpose(ctx, llm.PurposePronunciation), llm.Request{
		System: pronunciationSystem,
		Messages: []llm.Message{{
			Role: llm.RoleUser,
			Content: fmt.Sprintf(`Compare these two Kannada texts and rate the pronunciation accuracy:
Original: %s
User said: %s

Respond with accuracy_score (0-100), feedback (helpful feedback in English)
and correct (true if the pronunciation is acceptable).`, original, heard),
		}},
		Schema:    pronunciationSchema,
		MaxTokens: 300,
	})
	if err != nil {
		e.log.Warn("pronunciation evaluation failed", "error", err)
		return FailedEvaluation
	}

	var out Evaluation
	if err := llm.Decode(resp, pronunciationSchema, &out); err != nil {
		e.log.Warn("pronunciation evaluation unreadable", "error", err)
		return FailedEvaluation
	}
	out.Transcription = heard
	return out
}
