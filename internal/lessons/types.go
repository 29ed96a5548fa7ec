// Package lessons holds the lesson track library, server-side answer
// checking and the spreadsheet importer used to author tracks.
package lessons

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type identifies how a lesson is presented and checked.
type Type string

const (
	TypeMCQ                    Type = "mcq"
	TypeRepeatAfterMe          Type = "repeat_after_me"
	TypeFillInBlank            Type = "fill_in_blank"
	TypeWordMatching           Type = "word_matching"
	TypeListeningComprehension Type = "listening_comprehension"
	TypeTranslation            Type = "translation"
	TypeSentenceBuilding       Type = "sentence_building"
)

// Valid reports whether t is a known lesson type.
func (t Type) Valid() bool {
	switch t {
	case TypeMCQ, TypeRepeatAfterMe, TypeFillInBlank, TypeWordMatching,
		TypeListeningComprehension, TypeTranslation, TypeSentenceBuilding:
		return true
	}
	return false
}

// Difficulty of a track.
type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

// Track is an ordered group of lessons.
type Track struct {
	ID             string     `yaml:"id" json:"id"`
	Name           string     `yaml:"name" json:"name"`
	Description    string     `yaml:"description" json:"description"`
	Difficulty     Difficulty `yaml:"difficulty" json:"difficulty"`
	Simulation     string     `yaml:"simulation,omitempty" json:"simulation,omitempty"`
	ContentWarning string     `yaml:"content_warning,omitempty" json:"content_warning,omitempty"`
	AgeRestricted  bool       `yaml:"age_restricted,omitempty" json:"age_restricted,omitempty"`
	Lessons        []Lesson   `yaml:"lessons" json:"lessons"`
}

// Summary is the list view of a track.
type Summary struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Difficulty     Difficulty `json:"difficulty"`
	LessonCount    int        `json:"lesson_count"`
	HasSimulation  bool       `json:"has_simulation"`
	Simulation     string     `json:"simulation,omitempty"`
	ContentWarning string     `json:"content_warning,omitempty"`
	AgeRestricted  bool       `json:"age_restricted,omitempty"`
}

// Summary returns the list view of t.
func (t Track) Summary() Summary {
	return Summary{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Difficulty:     t.Difficulty,
		LessonCount:    len(t.Lessons),
		HasSimulation:  t.Simulation != "",
		Simulation:     t.Simulation,
		ContentWarning: t.ContentWarning,
		AgeRestricted:  t.AgeRestricted,
	}
}

// Lesson is one exercise in a track.
type Lesson struct {
	ID      string  `yaml:"id" json:"id"`
	Title   string  `yaml:"title" json:"title"`
	Type    Type    `yaml:"type" json:"type"`
	Content Content `yaml:"content" json:"content"`
}

// Pair is one row of a word matching exercise.
type Pair struct {
	Kannada string `yaml:"kannada" json:"kannada"`
	English string `yaml:"english" json:"english"`
}

// Content is the union of fields used by the lesson types. Only the
// fields relevant to a lesson's type are set.
type Content struct {
	Question      string   `yaml:"question,omitempty" json:"question,omitempty"`
	Options       []string `yaml:"options,omitempty" json:"options,omitempty"`
	CorrectAnswer Answer   `yaml:"correct_answer,omitempty" json:"correct_answer,omitzero"`
	Explanation   string   `yaml:"explanation,omitempty" json:"explanation,omitempty"`

	KannadaPhrase      string `yaml:"kannada_phrase,omitempty" json:"kannada_phrase,omitempty"`
	EnglishTranslation string `yaml:"english_translation,omitempty" json:"english_translation,omitempty"`
	PronunciationGuide string `yaml:"pronunciation_guide,omitempty" json:"pronunciation_guide,omitempty"`
	AudioURL           string `yaml:"audio_url,omitempty" json:"audio_url,omitempty"`

	Sentence    string `yaml:"sentence,omitempty" json:"sentence,omitempty"`
	EnglishHint string `yaml:"english_hint,omitempty" json:"english_hint,omitempty"`

	Pairs     []Pair `yaml:"pairs,omitempty" json:"pairs,omitempty"`
	AudioText string `yaml:"audio_text,omitempty" json:"audio_text,omitempty"`

	Direction      string   `yaml:"direction,omitempty" json:"direction,omitempty"`
	SourceText     string   `yaml:"source_text,omitempty" json:"source_text,omitempty"`
	CorrectAnswers []string `yaml:"correct_answers,omitempty" json:"correct_answers,omitempty"`
	Hints          []string `yaml:"hints,omitempty" json:"hints,omitempty"`

	EnglishSentence string   `yaml:"english_sentence,omitempty" json:"english_sentence,omitempty"`
	WordBank        []string `yaml:"word_bank,omitempty" json:"word_bank,omitempty"`
	CorrectOrder    []string `yaml:"correct_order,omitempty" json:"correct_order,omitempty"`
}

// SpokenText returns the text to synthesize for audio lessons, or "" for
// lesson types that carry no audio.
func (l Lesson) SpokenText() string {
	switch l.Type {
	case TypeRepeatAfterMe:
		return l.Content.KannadaPhrase
	case TypeListeningComprehension:
		return l.Content.AudioText
	}
	return ""
}

// Answer is a lesson answer given either as a single string or as a list
// of strings. Both shapes appear in lesson content and in submissions.
type Answer struct {
	values []string
	list   bool
}

// Text builds a single-string answer.
func Text(s string) Answer { return Answer{values: []string{s}} }

// List builds a list answer.
func List(items ...string) Answer {
	return Answer{values: append([]string(nil), items...), list: true}
}

func (a Answer) IsZero() bool { return len(a.values) == 0 && !a.list }

func (a Answer) IsList() bool { return a.list }

// Values returns the answer items. A single-string answer has one item.
func (a Answer) Values() []string { return append([]string(nil), a.values...) }

// First returns the first item, or "".
func (a Answer) First() string {
	if len(a.values) == 0 {
		return ""
	}
	return a.values[0]
}

// String joins list answers with a space.
func (a Answer) String() string { return strings.Join(a.values, " ") }

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.list {
		if a.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.values)
	}
	return json.Marshal(a.First())
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*a = Answer{}
		return nil
	case strings.HasPrefix(trimmed, "["):
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("answer list: %w", err)
		}
		*a = List(items...)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("answer must be a string or a list of strings")
	}
	*a = Text(s)
	return nil
}

func (a Answer) MarshalYAML() (any, error) {
	if a.list {
		return a.values, nil
	}
	return a.First(), nil
}

func (a *Answer) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return fmt.Errorf("answer list: %w", err)
		}
		*a = List(items...)
	case yaml.ScalarNode:
		*a = Text(node.Value)
	default:
		return fmt.Errorf("line %d: answer must be a string or a list", node.Line)
	}
	return nil
}
