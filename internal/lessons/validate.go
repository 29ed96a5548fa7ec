package lessons

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNotCheckable is returned for lesson types whose answers are judged
// on the client (matching) or by pronunciation evaluation.
var ErrNotCheckable = errors.New("lesson type is not checked server-side")

// Result is the verdict for one submitted answer.
type Result struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
	Score     int    `json:"score"`
}

func verdict(ok bool, feedback string) Result {
	if ok {
		return Result{IsCorrect: true, Score: 100}
	}
	return Result{Feedback: feedback}
}

// ValidateAnswer compares a user answer against the expected one.
// Translation accepts any listed answer, fill-in-blank and choice lessons
// need an exact match, and both ignore case and surrounding space.
// Sentence building compares word order exactly.
func ValidateAnswer(t Type, user, correct Answer) (Result, error) {
	if user.IsZero() || correct.IsZero() {
		return Result{}, fmt.Errorf("user and correct answers are required")
	}

	switch t {
	case TypeTranslation:
		got := normalize(user.String())
		ok := false
		for _, want := range correct.Values() {
			if normalize(want) == got {
				ok = true
				break
			}
		}
		return verdict(ok, "Close! The correct answer is: "+correct.First()), nil

	case TypeFillInBlank, TypeMCQ, TypeListeningComprehension:
		ok := normalize(user.String()) == normalize(correct.String())
		return verdict(ok, "The correct answer is: "+correct.String()), nil

	case TypeSentenceBuilding:
		ok := slices.Equal(words(user), words(correct))
		return verdict(ok, "The word order isn't quite right. Try again!"), nil
	}

	if !t.Valid() {
		return Result{}, fmt.Errorf("unknown lesson type %q", t)
	}
	return Result{}, fmt.Errorf("%w: %s", ErrNotCheckable, t)
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func words(a Answer) []string {
	if a.IsList() {
		return a.Values()
	}
	return strings.Fields(a.First())
}
