package playback

import (
	"fmt"
	"strconv"
	"time"

	"github.com/lessonloop/scenario-backend/internal/types"
)

// FeedbackDelay is how long a feedback line should stay on screen before it
// becomes advance-able. It is a presentation hint for the host layer; the
// evaluator itself is synchronous.
const FeedbackDelay = 1500 * time.Millisecond

const (
	defaultWinText = "Correct!"
	winExpression  = "happy"
	winSound       = "quiz_win"
	loseExpression = "serious"
	loseSound      = "quiz_lose"
)

// Answer is the outcome of one quiz interaction.
type Answer struct {
	Correct  bool
	Feedback types.Line
	// Missed is set on a wrong answer, for the spaced-review collaborator.
	Missed *types.MissedQuestion
}

// Evaluate compares the learner's 1-based option choice against the quiz
// line's expected answer and synthesizes the feedback line. Pure: no tallies,
// no timers. Malformed answer fields (non-numeric, out of range) simply
// evaluate as incorrect.
func Evaluate(line types.Line, option int) (correct bool, feedback types.Line) {
	correct = line.Answer == strconv.Itoa(option)

	feedback = line
	feedback.Speaker = ""
	feedback.Intent = ""
	feedback.Option1, feedback.Option2, feedback.Option3 = "", "", ""
	feedback.Answer, feedback.WinText, feedback.LoseText = "", "", ""

	if correct {
		feedback.Text = line.WinText
		if feedback.Text == "" {
			feedback.Text = defaultWinText
		}
		feedback.Expression = winExpression
		feedback.SE = winSound
		return correct, feedback
	}

	feedback.Text = line.LoseText
	if feedback.Text == "" {
		feedback.Text = defaultLoseText(line)
	}
	feedback.Expression = loseExpression
	feedback.SE = loseSound
	return correct, feedback
}

// defaultLoseText reveals the correct option when the line carries one.
func defaultLoseText(line types.Line) string {
	if idx, ok := line.AnswerIndex(); ok {
		return fmt.Sprintf("Not quite. The answer was %q.", line.Option(idx))
	}
	return "Not quite."
}

func missedQuestion(line types.Line, option int) types.MissedQuestion {
	missed := types.MissedQuestion{
		QuestionID:   line.QuestionID(),
		Prompt:       line.Text,
		ChosenIndex:  option,
		ChosenOption: line.Option(option),
		Options:      line.Options(),
	}
	if idx, ok := line.AnswerIndex(); ok {
		missed.CorrectIndex = idx
		missed.CorrectOption = line.Option(idx)
	}
	return missed
}
