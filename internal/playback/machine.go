// Package playback drives a loaded scenario dataset: scene-by-scene line
// advancement, quiz branching, and graph-like scene transitions with
// fallback termination. The machine performs no I/O and never mutates the
// stored lines; quiz feedback is synthesized as a transient overlay.
package playback

import (
	"errors"
	"fmt"
	"time"

	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/scene"
	"github.com/lessonloop/scenario-backend/internal/types"
)

// State is the machine's playback phase.
type State int

const (
	StateLoading State = iota
	StatePlaying
	StateQuizAwaitingAnswer
	StateFeedback
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StateQuizAwaitingAnswer:
		return "quiz_awaiting_answer"
	case StateFeedback:
		return "feedback"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

var (
	ErrSceneNotFound    = errors.New("scene not found in dataset")
	ErrNotStarted       = errors.New("no scene started")
	ErrQuizPending      = errors.New("a quiz answer is pending")
	ErrNoQuizPending    = errors.New("no quiz is awaiting an answer")
	ErrSessionCompleted = errors.New("session already completed")
)

// Result is what one advancement step hands to the caller: either the next
// line to display or the completion summary.
type Result struct {
	Line      types.Line
	State     State
	Completed bool
	Summary   *types.SessionSummary
}

// Machine holds the active scene, the current line pointer, and the session
// accumulator. All methods are synchronous transition functions over
// in-memory state; callers own any presentation timers.
type Machine struct {
	idx     *scene.Index
	lines   []types.Line
	sceneID string
	pos     int
	state   State
	overlay *types.Line
	acc     *Accumulator
	log     *logger.Logger
	now     func() time.Time
}

func NewMachine(idx *scene.Index, log *logger.Logger) *Machine {
	m := &Machine{
		idx:   idx,
		state: StateLoading,
		log:   log.With("component", "PlaybackMachine"),
		now:   time.Now,
	}
	m.acc = NewAccumulator(m.now())
	return m
}

func (m *Machine) State() State    { return m.state }
func (m *Machine) SceneID() string { return m.sceneID }

// Current returns the line the learner is looking at: the feedback overlay
// when one is showing, otherwise the line under the pointer.
func (m *Machine) Current() (types.Line, bool) {
	if m.state == StateLoading || m.state == StateCompleted || len(m.lines) == 0 {
		return types.Line{}, false
	}
	if m.overlay != nil {
		return *m.overlay, true
	}
	return m.lines[m.pos], true
}

// Tallies exposes the running quiz counters for mid-session reads.
func (m *Machine) Tallies() (answered, correct int) {
	return m.acc.Tallies()
}

// Missed returns the questions answered incorrectly so far, for the
// spaced-review hand-off.
func (m *Machine) Missed() []types.MissedQuestion {
	return m.acc.Missed()
}

// StartScene switches playback to the named scene and emits its first line.
func (m *Machine) StartScene(id string) (types.Line, error) {
	lines, ok := m.idx.Scene(id)
	if !ok || len(lines) == 0 {
		return types.Line{}, fmt.Errorf("%w: %q", ErrSceneNotFound, id)
	}
	m.sceneID = id
	m.lines = lines
	m.pos = 0
	m.overlay = nil
	m.state = stateFor(lines[0])
	return lines[0], nil
}

// Advance moves to the next line, or resolves the scene-end transition when
// the pointer is at the last line. It is rejected while a quiz awaits its
// answer; from the feedback overlay it proceeds to the quiz line's own
// successor.
func (m *Machine) Advance() (Result, error) {
	switch m.state {
	case StateLoading:
		return Result{}, ErrNotStarted
	case StateCompleted:
		return Result{}, ErrSessionCompleted
	case StateQuizAwaitingAnswer:
		return Result{}, ErrQuizPending
	}

	m.overlay = nil
	if m.pos+1 < len(m.lines) {
		m.pos++
		l := m.lines[m.pos]
		m.state = stateFor(l)
		return Result{Line: l, State: m.state}, nil
	}

	next := m.lines[len(m.lines)-1].Next
	switch {
	case next == "" || next == types.NextEnd:
		return m.complete(), nil
	case m.idx.Contains(next):
		l, err := m.StartScene(next)
		if err != nil {
			return m.complete(), nil
		}
		return Result{Line: l, State: m.state}, nil
	default:
		// Authors sometimes leave free text or stray ids in the next
		// column. Finishing the session here is the long-standing behavior;
		// routing elsewhere would hide the typo and risk a loop.
		m.log.Warn("unrecognized transition target, completing session",
			"scene", m.sceneID, "next", next)
		return m.complete(), nil
	}
}

// SubmitAnswer evaluates the pending quiz line against the learner's 1-based
// option choice and installs the feedback overlay without moving the
// pointer.
func (m *Machine) SubmitAnswer(option int) (Answer, error) {
	if m.state != StateQuizAwaitingAnswer {
		return Answer{}, ErrNoQuizPending
	}

	line := m.lines[m.pos]
	correct, feedback := Evaluate(line, option)
	m.acc.RecordAnswer(correct)

	ans := Answer{Correct: correct, Feedback: feedback}
	if !correct {
		missed := missedQuestion(line, option)
		m.acc.RecordMissed(missed)
		ans.Missed = &missed
	}

	m.overlay = &feedback
	m.state = StateFeedback
	return ans, nil
}

func (m *Machine) complete() Result {
	m.state = StateCompleted
	m.overlay = nil
	m.acc.Complete(m.now())
	summary := m.acc.Summary()
	return Result{State: StateCompleted, Completed: true, Summary: &summary}
}

func stateFor(l types.Line) State {
	if l.IsQuiz() {
		return StateQuizAwaitingAnswer
	}
	return StatePlaying
}
