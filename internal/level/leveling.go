package level

import "time"

// UserSkillLevel is a user's proficiency for one (skill area, exercise type).
type UserSkillLevel struct {
	UserID         string
	SkillArea      string
	ExerciseType   string
	NumericLevel   float64
	AttemptsAtBand int
	CorrectStreak  int
	FailureStreak  int
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Band derives the band from the numeric level.
func (l UserSkillLevel) Band() Band {
	return BandFor(l.NumericLevel)
}

// Outcome classifies a scored attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeNeutral Outcome = "neutral"
	OutcomeFailure Outcome = "failure"
)

// Classify buckets a score under p.
func (p Policy) Classify(score int) Outcome {
	switch {
	case score >= p.SuccessScore:
		return OutcomeSuccess
	case score < p.FailureScore:
		return OutcomeFailure
	default:
		return OutcomeNeutral
	}
}

// Change records a numeric level move caused by a score.
type Change struct {
	From    float64
	To      float64
	Trigger string // "promote", "demote"
}

// BandChanged reports whether the move crossed a band boundary.
func (c *Change) BandChanged() bool {
	return c != nil && BandFor(c.From) != BandFor(c.To)
}

// Apply runs one scored attempt through the leveling rules and returns the
// updated level. Change is nil when the numeric level did not move.
func (p Policy) Apply(l UserSkillLevel, score int) (UserSkillLevel, *Change) {
	var change *Change

	switch p.Classify(score) {
	case OutcomeSuccess:
		l.CorrectStreak++
		l.FailureStreak = 0
		if l.CorrectStreak >= p.PromoteStreak && l.AttemptsAtBand >= p.PromoteMinAttempts {
			change = p.move(&l, p.Step, "promote")
		} else {
			l.AttemptsAtBand++
		}

	case OutcomeFailure:
		l.CorrectStreak = 0
		l.FailureStreak++
		if l.FailureStreak >= p.DemoteStreak {
			change = p.move(&l, -p.Step, "demote")
		} else {
			l.AttemptsAtBand++
		}

	case OutcomeNeutral:
		l.AttemptsAtBand++
	}

	return l, change
}

// move shifts the numeric level by delta within bounds and resets the
// counters that are scoped to a level.
func (p Policy) move(l *UserSkillLevel, delta float64, trigger string) *Change {
	from := l.NumericLevel
	l.NumericLevel = clamp(from+delta, MinLevel, MaxLevel)
	l.AttemptsAtBand = 0
	l.CorrectStreak = 0
	l.FailureStreak = 0
	if l.NumericLevel == from {
		return nil
	}
	return &Change{From: from, To: l.NumericLevel, Trigger: trigger}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
