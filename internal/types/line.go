package types

import "strconv"

// QuizSpeaker is the sentinel speaker name marking a quiz line.
const QuizSpeaker = "Quiz"

// DefaultExpression is used when a row does not name an emotion/pose tag.
const DefaultExpression = "normal"

// Intent values carried on a line. Empty means plain dialogue.
const (
	IntentQuiz      = "quiz"
	IntentQuizFill  = "quiz_fill"
	IntentQuizOrder = "quiz_order"
)

// NextEnd is the explicit "terminate here" transition target.
const NextEnd = "end"

// Line is one atomic unit of scenario content: a spoken line, a quiz, or a
// scene-transition marker. A dataset of lines is immutable once normalized;
// the playback layer synthesizes transient lines (quiz feedback) but never
// writes them back.
type Line struct {
	Scene      string `json:"scene"`
	Order      int    `json:"order"`
	Speaker    string `json:"speaker"`
	Text       string `json:"text"`
	Expression string `json:"expression"`
	Background string `json:"background"`
	SE         string `json:"se"`
	Effect     string `json:"effect"`
	Voice      string `json:"voice"`
	Graph      string `json:"graph"`
	StudyImage string `json:"study_image"`
	Intent     string `json:"intent"`
	Option1    string `json:"option1,omitempty"`
	Option2    string `json:"option2,omitempty"`
	Option3    string `json:"option3,omitempty"`
	Answer     string `json:"answer,omitempty"`
	WinText    string `json:"win_text,omitempty"`
	LoseText   string `json:"lose_text,omitempty"`
	Next       string `json:"next"`
}

// IsQuiz reports whether the line expects a learner answer instead of a tap.
func (l Line) IsQuiz() bool {
	return l.Speaker == QuizSpeaker
}

// Options returns the three option slots in order. Empty slots stay empty so
// callers can mask unavailable buttons by position.
func (l Line) Options() [3]string {
	return [3]string{l.Option1, l.Option2, l.Option3}
}

// Option returns the 1-based option text, or "" when the index is out of
// range or the slot is empty.
func (l Line) Option(i int) string {
	switch i {
	case 1:
		return l.Option1
	case 2:
		return l.Option2
	case 3:
		return l.Option3
	default:
		return ""
	}
}

// AnswerIndex parses the 1-based answer field. ok is false for missing,
// non-numeric, or out-of-range answers; malformed content never errors
// further up than this.
func (l Line) AnswerIndex() (int, bool) {
	n, err := strconv.Atoi(l.Answer)
	if err != nil || n < 1 || n > 3 {
		return 0, false
	}
	if l.Option(n) == "" {
		return 0, false
	}
	return n, true
}

// QuestionID identifies a quiz line within its dataset for review hand-off.
func (l Line) QuestionID() string {
	return l.Scene + "#" + strconv.Itoa(l.Order)
}

// RawRow is one unnormalized record as it arrives from a source: every value
// already coerced to a string, keys not yet alias-normalized.
type RawRow map[string]string

// Dataset is the normalized, immutable result of one successful load.
type Dataset struct {
	Subject string `json:"subject"`
	Lines   []Line `json:"lines"`
}

// SessionSummary is the read-only completion hand-off for reward, stat and
// review collaborators.
type SessionSummary struct {
	DurationSeconds   int `json:"duration_seconds"`
	QuestionsAnswered int `json:"questions_answered"`
	CorrectAnswers    int `json:"correct_answers"`
}

// MissedQuestion is handed to the spaced-review collaborator when a learner
// answers a quiz incorrectly.
type MissedQuestion struct {
	QuestionID    string    `json:"question_id"`
	Prompt        string    `json:"prompt"`
	ChosenIndex   int       `json:"chosen_index"`
	ChosenOption  string    `json:"chosen_option"`
	CorrectIndex  int       `json:"correct_index"`
	CorrectOption string    `json:"correct_option"`
	Options       [3]string `json:"options"`
}
