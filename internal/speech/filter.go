package speech

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kalike-app/kalike/internal/platform/logger"
	"github.com/kalike-app/kalike/internal/simulation"
)

// KeywordFilter screens text for blocked words. It rewrites agent replies
// in restricted scenarios and checks user recordings before a turn.
type KeywordFilter struct {
	blocked []*regexp.Regexp
	words   []string
	stt     simulation.Transcriber
	log     *logger.Logger
}

// NewKeywordFilter compiles blocked words as case-insensitive literals.
// stt may be nil, in which case CheckAudio allows everything.
func NewKeywordFilter(blocked []string, stt simulation.Transcriber, log *logger.Logger) *KeywordFilter {
	if log == nil {
		log = logger.Nop()
	}
	f := &KeywordFilter{stt: stt, log: log.With("component", "content_filter")}
	for _, w := range blocked {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		f.words = append(f.words, w)
		f.blocked = append(f.blocked, regexp.MustCompile("(?i)"+regexp.QuoteMeta(w)))
	}
	return f
}

// Filter applies the scenario's replacements, then masks any blocked
// word still present.
func (f *KeywordFilter) Filter(text string, sc simulation.Scenario) string {
	for old, repl := range sc.Replacements {
		if old == "" {
			continue
		}
		re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(old))
		text = re.ReplaceAllLiteralString(text, repl)
	}
	for _, re := range f.blocked {
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			return strings.Repeat("*", utf8.RuneCountInString(m))
		})
	}
	return text
}

// CheckText reports whether text is free of blocked words, and the first
// blocked word found otherwise.
func (f *KeywordFilter) CheckText(text string) (bool, string) {
	for i, re := range f.blocked {
		if re.MatchString(text) {
			return false, f.words[i]
		}
	}
	return true, ""
}

// CheckAudio transcribes audio and checks the text. Transcription
// failures allow the content.
func (f *KeywordFilter) CheckAudio(ctx context.Context, audio simulation.Audio) bool {
	if f.stt == nil || len(f.blocked) == 0 {
		return true
	}
	text, err := f.stt.Transcribe(ctx, audio, simulation.DefaultLanguage)
	if err != nil {
		f.log.Warn("content check transcription failed, allowing", "error", err)
		return true
	}
	ok, word := f.CheckText(text)
	if !ok {
		f.log.Info("blocked inappropriate audio", "word_len", utf8.RuneCountInString(word))
	}
	return ok
}
