package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/lessonloop/scenario-backend/internal/apierr"
	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/playback"
	"github.com/lessonloop/scenario-backend/internal/repos"
	"github.com/lessonloop/scenario-backend/internal/scene"
	"github.com/lessonloop/scenario-backend/internal/source"
	"github.com/lessonloop/scenario-backend/internal/types"
)

// sessionIdleTTL bounds how long an untouched session survives before the
// registry sweeps it.
const sessionIdleTTL = 2 * time.Hour

// DatasetResolver is the slice of the source resolver this service needs;
// tests substitute a fake.
type DatasetResolver interface {
	Resolve(ctx context.Context, subject, requestedScene string) (*types.Dataset, error)
}

type ScenarioService interface {
	Start(ctx context.Context, subject, topic string) (*SessionView, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*SessionView, error)
	Advance(ctx context.Context, sessionID uuid.UUID) (*SessionView, error)
	Answer(ctx context.Context, sessionID uuid.UUID, option int) (*SessionView, error)
	End(ctx context.Context, sessionID uuid.UUID) error
}

// SessionView is the playback state handed to collaborators after every
// operation: the current line for rendering/TTS, quiz outcome, and the
// completion summary.
type SessionView struct {
	SessionID         uuid.UUID             `json:"session_id"`
	Subject           string                `json:"subject"`
	Topic             string                `json:"topic"`
	State             string                `json:"state"`
	Line              *types.Line           `json:"line,omitempty"`
	Notice            string                `json:"notice,omitempty"`
	Correct           *bool                 `json:"correct,omitempty"`
	FeedbackDelayMS   int                   `json:"feedback_delay_ms,omitempty"`
	QuestionsAnswered int                   `json:"questions_answered"`
	CorrectAnswers    int                   `json:"correct_answers"`
	Completed         bool                  `json:"completed"`
	Summary           *types.SessionSummary `json:"summary,omitempty"`
}

type playSession struct {
	id         uuid.UUID
	subject    string
	topic      string
	notice     string
	machine    *playback.Machine
	lastActive time.Time
}

type scenarioService struct {
	resolver    DatasetResolver
	sessionRepo repos.SessionRecordRepo
	reviewRepo  repos.ReviewItemRepo
	log         *logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*playSession
	flight   singleflight.Group
	now      func() time.Time
}

func NewScenarioService(resolver DatasetResolver, sessionRepo repos.SessionRecordRepo, reviewRepo repos.ReviewItemRepo, baseLog *logger.Logger) ScenarioService {
	return &scenarioService{
		resolver:    resolver,
		sessionRepo: sessionRepo,
		reviewRepo:  reviewRepo,
		log:         baseLog.With("service", "ScenarioService"),
		sessions:    make(map[uuid.UUID]*playSession),
		now:         time.Now,
	}
}

func (s *scenarioService) Start(ctx context.Context, subject, topic string) (*SessionView, error) {
	if subject == "" {
		return nil, apierr.New(http.StatusBadRequest, "missing_subject", errors.New("subject is required"))
	}

	// Concurrent starts for the same subject+topic share one resolution.
	v, err, _ := s.flight.Do(subject+"|"+topic, func() (interface{}, error) {
		return s.resolver.Resolve(ctx, subject, topic)
	})
	if err != nil {
		switch {
		case errors.Is(err, source.ErrUnknownSubject):
			return nil, apierr.New(http.StatusNotFound, "unknown_subject", err)
		case errors.Is(err, source.ErrAllSourcesExhausted):
			return nil, apierr.New(http.StatusBadGateway, "all_sources_exhausted", err)
		default:
			return nil, apierr.New(http.StatusBadGateway, "load_failed", err)
		}
	}
	dataset := v.(*types.Dataset)

	idx := scene.Build(dataset.Lines)
	startID, fellBack := idx.Start(topic)
	if startID == "" {
		return nil, apierr.New(http.StatusBadGateway, "empty_dataset",
			fmt.Errorf("subject %q resolved to an empty dataset", subject))
	}

	sess := &playSession{
		id:         uuid.New(),
		subject:    subject,
		topic:      topic,
		machine:    playback.NewMachine(idx, s.log),
		lastActive: s.now(),
	}
	if fellBack {
		sess.notice = fmt.Sprintf("topic %q not found; starting at %q", topic, startID)
		s.log.Warn("topic not found, using fallback scene",
			"subject", subject, "topic", topic, "scene", startID)
	}
	if _, err := sess.machine.StartScene(startID); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "scene_start_failed", err)
	}

	s.mu.Lock()
	s.evictIdleLocked()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.log.Info("session started", "session_id", sess.id, "subject", subject, "scene", startID)
	return s.view(sess, nil), nil
}

func (s *scenarioService) Get(_ context.Context, sessionID uuid.UUID) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupLocked(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sess, nil), nil
}

func (s *scenarioService) Advance(ctx context.Context, sessionID uuid.UUID) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupLocked(sessionID)
	if err != nil {
		return nil, err
	}
	sess.lastActive = s.now()

	res, err := sess.machine.Advance()
	if err != nil {
		switch {
		case errors.Is(err, playback.ErrQuizPending):
			return nil, apierr.New(http.StatusConflict, "quiz_pending", err)
		case errors.Is(err, playback.ErrSessionCompleted):
			return nil, apierr.New(http.StatusGone, "session_completed", err)
		default:
			return nil, apierr.New(http.StatusConflict, "advance_rejected", err)
		}
	}

	if res.Completed {
		view := s.view(sess, nil)
		view.Completed = true
		view.Summary = res.Summary
		s.handOffLocked(ctx, sess, *res.Summary)
		delete(s.sessions, sessionID)
		return view, nil
	}
	return s.view(sess, nil), nil
}

func (s *scenarioService) Answer(_ context.Context, sessionID uuid.UUID, option int) (*SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, err := s.lookupLocked(sessionID)
	if err != nil {
		return nil, err
	}
	sess.lastActive = s.now()

	ans, err := sess.machine.SubmitAnswer(option)
	if err != nil {
		return nil, apierr.New(http.StatusConflict, "no_quiz_pending", err)
	}

	view := s.view(sess, &ans.Correct)
	view.FeedbackDelayMS = int(playback.FeedbackDelay.Milliseconds())
	return view, nil
}

func (s *scenarioService) End(_ context.Context, sessionID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return apierr.New(http.StatusNotFound, "session_not_found",
			fmt.Errorf("session %s not found", sessionID))
	}
	// Teardown discards everything pending; nothing reaches the stores.
	delete(s.sessions, sessionID)
	s.log.Info("session torn down", "session_id", sessionID)
	return nil
}

func (s *scenarioService) lookupLocked(sessionID uuid.UUID) (*playSession, error) {
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, apierr.New(http.StatusNotFound, "session_not_found",
			fmt.Errorf("session %s not found", sessionID))
	}
	return sess, nil
}

func (s *scenarioService) evictIdleLocked() {
	cutoff := s.now().Add(-sessionIdleTTL)
	for id, sess := range s.sessions {
		if sess.lastActive.Before(cutoff) {
			s.log.Warn("evicting idle session", "session_id", id, "subject", sess.subject)
			delete(s.sessions, id)
		}
	}
}

// handOffLocked persists the completion summary and missed questions for the
// reward and review collaborators. Persistence failures are logged only; the
// learner's completion never depends on storage.
func (s *scenarioService) handOffLocked(ctx context.Context, sess *playSession, summary types.SessionSummary) {
	record := &types.SessionRecord{
		ID:                sess.id,
		Subject:           sess.subject,
		Topic:             sess.topic,
		DurationSeconds:   summary.DurationSeconds,
		QuestionsAnswered: summary.QuestionsAnswered,
		CorrectAnswers:    summary.CorrectAnswers,
	}
	if _, err := s.sessionRepo.Create(ctx, nil, record); err != nil {
		s.log.Error("session summary hand-off failed", "session_id", sess.id, "error", err)
	}
	if missed := sess.machine.Missed(); len(missed) > 0 {
		if _, err := s.reviewRepo.CreateFromMissed(ctx, nil, sess.id, sess.subject, missed); err != nil {
			s.log.Error("review hand-off failed", "session_id", sess.id, "error", err)
		}
	}
}

func (s *scenarioService) view(sess *playSession, correct *bool) *SessionView {
	answered, right := sess.machine.Tallies()
	view := &SessionView{
		SessionID:         sess.id,
		Subject:           sess.subject,
		Topic:             sess.topic,
		State:             sess.machine.State().String(),
		Notice:            sess.notice,
		Correct:           correct,
		QuestionsAnswered: answered,
		CorrectAnswers:    right,
	}
	if line, ok := sess.machine.Current(); ok {
		view.Line = &line
	}
	return view
}
