package lessons

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrTrackNotFound  = errors.New("track not found")
	ErrLessonNotFound = errors.New("lesson not found")
)

// Library is the immutable set of lesson tracks, in authoring order.
type Library struct {
	tracks []Track
	byID   map[string]int
}

type tracksFile struct {
	Tracks []Track `yaml:"tracks"`
}

// ParseTracks decodes a tracks YAML document. Unknown fields are errors.
func ParseTracks(data []byte) ([]Track, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f tracksFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode tracks: %w", err)
	}
	return f.Tracks, nil
}

// EncodeTracks writes tracks in the format ParseTracks reads.
func EncodeTracks(w io.Writer, tracks []Track) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(tracksFile{Tracks: tracks}); err != nil {
		return fmt.Errorf("encode tracks: %w", err)
	}
	return enc.Close()
}

// NewLibrary validates tracks and indexes them.
func NewLibrary(tracks []Track) (*Library, error) {
	lib := &Library{byID: make(map[string]int, len(tracks))}
	for _, t := range tracks {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, dup := lib.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate track %q", t.ID)
		}
		lib.byID[t.ID] = len(lib.tracks)
		lib.tracks = append(lib.tracks, t)
	}
	return lib, nil
}

// Tracks returns every track in authoring order.
func (l *Library) Tracks() []Track {
	return append([]Track(nil), l.tracks...)
}

func (l *Library) Summaries() []Summary {
	out := make([]Summary, 0, len(l.tracks))
	for _, t := range l.tracks {
		out = append(out, t.Summary())
	}
	return out
}

func (l *Library) Track(id string) (Track, error) {
	i, ok := l.byID[id]
	if !ok {
		return Track{}, fmt.Errorf("%w: %q", ErrTrackNotFound, id)
	}
	return l.tracks[i], nil
}

func (l *Library) Lesson(trackID, lessonID string) (Lesson, error) {
	t, err := l.Track(trackID)
	if err != nil {
		return Lesson{}, err
	}
	for _, ls := range t.Lessons {
		if ls.ID == lessonID {
			return ls, nil
		}
	}
	return Lesson{}, fmt.Errorf("%w: %q in track %q", ErrLessonNotFound, lessonID, trackID)
}

// LessonCount is the number of lessons across all tracks.
func (l *Library) LessonCount() int {
	n := 0
	for _, t := range l.tracks {
		n += len(t.Lessons)
	}
	return n
}

// Merge returns a new library where lessons from incoming replace lessons
// with the same track and lesson ID, and new lessons and tracks are
// appended. It reports how many lessons were added and replaced.
func (l *Library) Merge(incoming []Track) (*Library, int, int, error) {
	merged := make([]Track, 0, len(l.tracks)+len(incoming))
	for _, t := range l.tracks {
		t.Lessons = append([]Lesson(nil), t.Lessons...)
		merged = append(merged, t)
	}
	index := make(map[string]int, len(merged))
	for i, t := range merged {
		index[t.ID] = i
	}

	created, updated := 0, 0
	for _, in := range incoming {
		i, ok := index[in.ID]
		if !ok {
			index[in.ID] = len(merged)
			merged = append(merged, Track{
				ID: in.ID, Name: in.Name, Description: in.Description,
				Difficulty: in.Difficulty, Simulation: in.Simulation,
				ContentWarning: in.ContentWarning, AgeRestricted: in.AgeRestricted,
			})
			i = len(merged) - 1
		}
		for _, ls := range in.Lessons {
			if replaceLesson(&merged[i], ls) {
				updated++
			} else {
				merged[i].Lessons = append(merged[i].Lessons, ls)
				created++
			}
		}
	}

	lib, err := NewLibrary(merged)
	if err != nil {
		return nil, 0, 0, err
	}
	return lib, created, updated, nil
}

func replaceLesson(t *Track, ls Lesson) bool {
	for i := range t.Lessons {
		if t.Lessons[i].ID == ls.ID {
			t.Lessons[i] = ls
			return true
		}
	}
	return false
}

func (t Track) validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("track %q has no id", t.Name)
	}
	switch t.Difficulty {
	case Beginner, Intermediate, Advanced:
	default:
		return fmt.Errorf("track %q: unknown difficulty %q", t.ID, t.Difficulty)
	}
	seen := make(map[string]bool, len(t.Lessons))
	for _, ls := range t.Lessons {
		if seen[ls.ID] {
			return fmt.Errorf("track %q: duplicate lesson %q", t.ID, ls.ID)
		}
		seen[ls.ID] = true
		if err := ls.validate(); err != nil {
			return fmt.Errorf("track %q: %w", t.ID, err)
		}
	}
	return nil
}

func (l Lesson) validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return fmt.Errorf("lesson %q has no id", l.Title)
	}
	if !l.Type.Valid() {
		return fmt.Errorf("lesson %q: unknown type %q", l.ID, l.Type)
	}
	c := l.Content
	var missing string
	switch l.Type {
	case TypeMCQ, TypeListeningComprehension:
		if len(c.Options) < 2 {
			missing = "options"
		} else if c.CorrectAnswer.IsZero() {
			missing = "correct_answer"
		}
		if l.Type == TypeListeningComprehension && c.AudioText == "" && c.AudioURL == "" {
			missing = "audio_text"
		}
	case TypeRepeatAfterMe:
		if c.KannadaPhrase == "" {
			missing = "kannada_phrase"
		}
	case TypeFillInBlank:
		if c.Sentence == "" {
			missing = "sentence"
		} else if c.CorrectAnswer.IsZero() {
			missing = "correct_answer"
		}
	case TypeWordMatching:
		if len(c.Pairs) == 0 {
			missing = "pairs"
		}
	case TypeTranslation:
		if c.SourceText == "" {
			missing = "source_text"
		} else if len(c.CorrectAnswers) == 0 {
			missing = "correct_answers"
		}
	case TypeSentenceBuilding:
		if len(c.WordBank) == 0 {
			missing = "word_bank"
		} else if len(c.CorrectOrder) == 0 {
			missing = "correct_order"
		}
	}
	if missing != "" {
		return fmt.Errorf("lesson %q (%s): missing %s", l.ID, l.Type, missing)
	}
	return nil
}
