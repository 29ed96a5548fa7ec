package progression

// XPRules holds the XP constants used for lesson awards.
type XPRules struct {
	CorrectAnswer    int `yaml:"correct_answer" json:"correct_answer"`
	LessonCompletion int `yaml:"lesson_completion" json:"lesson_completion"`
	PerfectLesson    int `yaml:"perfect_lesson" json:"perfect_lesson"`
}

const (
	firstAttemptNum, firstAttemptDen = 3, 2 // x1.5
	speedNum, speedDen               = 6, 5 // x1.2

	// SpeedBonusSeconds is the exclusive upper bound for the speed bonus.
	SpeedBonusSeconds = 120
)

// AwardLessonXP computes the XP for one lesson submission. The base is
// score percent of PerfectLesson, and a perfect score adds the
// PerfectLesson-LessonCompletion bonus on top, so AwardLessonXP(100, 60,
// true) is 270 with the default 50/100 constants. Each multiplier
// truncates, and the first-attempt multiplier runs before the speed one.
func (r XPRules) AwardLessonXP(score, timeSpentSeconds int, firstAttempt bool) (int, error) {
	if score < 0 || score > 100 {
		return 0, invalidInput("score %d outside 0..100", score)
	}
	if timeSpentSeconds < 0 {
		return 0, invalidInput("negative time spent %d", timeSpentSeconds)
	}

	xp := score * r.PerfectLesson / 100
	if score == 100 {
		xp += r.PerfectLesson - r.LessonCompletion
	}
	if firstAttempt {
		xp = xp * firstAttemptNum / firstAttemptDen
	}
	if timeSpentSeconds < SpeedBonusSeconds {
		xp = xp * speedNum / speedDen
	}
	return xp, nil
}
