package playback

import (
	"time"

	"github.com/lessonloop/scenario-backend/internal/types"
)

// Accumulator tracks one session's wall-clock duration and quiz tallies for
// the completion hand-off.
type Accumulator struct {
	startedAt   time.Time
	completedAt time.Time
	answered    int
	correct     int
	missed      []types.MissedQuestion
}

func NewAccumulator(start time.Time) *Accumulator {
	return &Accumulator{startedAt: start}
}

func (a *Accumulator) RecordAnswer(correct bool) {
	a.answered++
	if correct {
		a.correct++
	}
}

func (a *Accumulator) RecordMissed(m types.MissedQuestion) {
	a.missed = append(a.missed, m)
}

func (a *Accumulator) Complete(at time.Time) {
	a.completedAt = at
}

func (a *Accumulator) Tallies() (answered, correct int) {
	return a.answered, a.correct
}

func (a *Accumulator) Missed() []types.MissedQuestion {
	out := make([]types.MissedQuestion, len(a.missed))
	copy(out, a.missed)
	return out
}

// Summary is the read-only completion hand-off. Duration is zero until
// Complete has been called.
func (a *Accumulator) Summary() types.SessionSummary {
	duration := 0
	if !a.completedAt.IsZero() {
		duration = int(a.completedAt.Sub(a.startedAt).Seconds())
	}
	return types.SessionSummary{
		DurationSeconds:   duration,
		QuestionsAnswered: a.answered,
		CorrectAnswers:    a.correct,
	}
}
