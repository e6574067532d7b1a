package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lessonloop/scenario-backend/internal/apierr"
	"github.com/lessonloop/scenario-backend/internal/logger"
	"github.com/lessonloop/scenario-backend/internal/source"
	"github.com/lessonloop/scenario-backend/internal/types"
)

type fakeResolver struct {
	dataset *types.Dataset
	err     error
}

func (f *fakeResolver) Resolve(context.Context, string, string) (*types.Dataset, error) {
	return f.dataset, f.err
}

type fakeSessionRepo struct {
	records []*types.SessionRecord
	err     error
}

func (f *fakeSessionRepo) Create(_ context.Context, _ *gorm.DB, record *types.SessionRecord) (*types.SessionRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.records = append(f.records, record)
	return record, nil
}

func (f *fakeSessionRepo) GetBySubject(context.Context, *gorm.DB, string) ([]*types.SessionRecord, error) {
	return f.records, nil
}

func (f *fakeSessionRepo) GetByID(context.Context, *gorm.DB, uuid.UUID) (*types.SessionRecord, error) {
	return nil, gorm.ErrRecordNotFound
}

type fakeReviewRepo struct {
	items []*types.ReviewItem
}

func (f *fakeReviewRepo) CreateFromMissed(_ context.Context, _ *gorm.DB, sessionID uuid.UUID, subject string, missed []types.MissedQuestion) ([]*types.ReviewItem, error) {
	for _, m := range missed {
		f.items = append(f.items, &types.ReviewItem{
			SessionID: sessionID, Subject: subject,
			QuestionID: m.QuestionID, Prompt: m.Prompt,
		})
	}
	return f.items, nil
}

func (f *fakeReviewRepo) GetBySubject(context.Context, *gorm.DB, string) ([]*types.ReviewItem, error) {
	return f.items, nil
}

func (f *fakeReviewRepo) FullDeleteBySessionID(context.Context, *gorm.DB, uuid.UUID) error {
	return nil
}

func quizDataset() *types.Dataset {
	return &types.Dataset{Subject: "math", Lines: []types.Line{
		{Scene: "start", Order: 1, Speaker: types.QuizSpeaker, Text: "go or goes?",
			Option1: "go", Option2: "goes", Answer: "2",
			WinText: "Correct!", LoseText: "Wrong, it's goes."},
		{Scene: "start", Order: 2, Text: "wrap up"},
	}}
}

func newService(res DatasetResolver) (ScenarioService, *fakeSessionRepo, *fakeReviewRepo) {
	sessions := &fakeSessionRepo{}
	reviews := &fakeReviewRepo{}
	return NewScenarioService(res, sessions, reviews, logger.NewNop()), sessions, reviews
}

func statusOf(t *testing.T, err error) (int, string) {
	t.Helper()
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected apierr.Error, got %v", err)
	}
	return apiErr.Status, apiErr.Code
}

func TestStart_EmitsFirstLine(t *testing.T) {
	svc, _, _ := newService(&fakeResolver{dataset: quizDataset()})

	view, err := svc.Start(context.Background(), "math", "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Line == nil || view.Line.Text != "go or goes?" {
		t.Fatalf("expected first line, got %+v", view.Line)
	}
	if view.State != "quiz_awaiting_answer" {
		t.Fatalf("expected quiz state, got %q", view.State)
	}
	if view.Notice != "" {
		t.Fatalf("no notice expected, got %q", view.Notice)
	}
}

func TestStart_TopicFallbackCarriesNotice(t *testing.T) {
	svc, _, _ := newService(&fakeResolver{dataset: quizDataset()})

	view, err := svc.Start(context.Background(), "math", "doppler")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if view.Notice == "" {
		t.Fatalf("expected a topic-not-found notice")
	}
	if view.Line == nil || view.Line.Scene != "start" {
		t.Fatalf("expected fallback to the start scene, got %+v", view.Line)
	}
}

func TestStart_ErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{source.ErrUnknownSubject, 404, "unknown_subject"},
		{source.ErrAllSourcesExhausted, 502, "all_sources_exhausted"},
		{errors.New("weird"), 502, "load_failed"},
	} {
		svc, _, _ := newService(&fakeResolver{err: tc.err})
		_, err := svc.Start(context.Background(), "math", "start")
		status, code := statusOf(t, err)
		if status != tc.wantStatus || code != tc.wantCode {
			t.Fatalf("%v: got (%d, %s), want (%d, %s)", tc.err, status, code, tc.wantStatus, tc.wantCode)
		}
	}
}

func TestStart_RequiresSubject(t *testing.T) {
	svc, _, _ := newService(&fakeResolver{dataset: quizDataset()})
	_, err := svc.Start(context.Background(), "", "start")
	if status, _ := statusOf(t, err); status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestSessionLifecycle_WrongAnswerFeedsReviewQueue(t *testing.T) {
	svc, sessions, reviews := newService(&fakeResolver{dataset: quizDataset()})
	ctx := context.Background()

	view, err := svc.Start(ctx, "math", "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	ansView, err := svc.Answer(ctx, view.SessionID, 1)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if ansView.Correct == nil || *ansView.Correct {
		t.Fatalf("expected incorrect answer, got %+v", ansView.Correct)
	}
	if ansView.Line == nil || ansView.Line.Text != "Wrong, it's goes." {
		t.Fatalf("expected loseText feedback line, got %+v", ansView.Line)
	}
	if ansView.FeedbackDelayMS != 1500 {
		t.Fatalf("expected 1500ms feedback delay hint, got %d", ansView.FeedbackDelayMS)
	}

	if _, err := svc.Advance(ctx, view.SessionID); err != nil {
		t.Fatalf("advance past feedback: %v", err)
	}
	final, err := svc.Advance(ctx, view.SessionID)
	if err != nil {
		t.Fatalf("final advance: %v", err)
	}
	if !final.Completed || final.Summary == nil {
		t.Fatalf("expected completion, got %+v", final)
	}
	if final.Summary.QuestionsAnswered != 1 || final.Summary.CorrectAnswers != 0 {
		t.Fatalf("unexpected summary: %+v", final.Summary)
	}

	if len(sessions.records) != 1 || sessions.records[0].QuestionsAnswered != 1 {
		t.Fatalf("expected one persisted session record, got %+v", sessions.records)
	}
	if len(reviews.items) != 1 || reviews.items[0].QuestionID != "start#1" {
		t.Fatalf("expected one review item, got %+v", reviews.items)
	}

	// Completed sessions leave the registry.
	if _, err := svc.Get(ctx, view.SessionID); err == nil {
		t.Fatalf("expected completed session to be gone")
	}
}

func TestAdvance_WhileQuizPending(t *testing.T) {
	svc, _, _ := newService(&fakeResolver{dataset: quizDataset()})
	view, _ := svc.Start(context.Background(), "math", "start")

	_, err := svc.Advance(context.Background(), view.SessionID)
	if status, code := statusOf(t, err); status != 409 || code != "quiz_pending" {
		t.Fatalf("got (%d, %s), want (409, quiz_pending)", status, code)
	}
}

func TestAnswer_WithoutQuiz(t *testing.T) {
	plain := &types.Dataset{Subject: "math", Lines: []types.Line{
		{Scene: "start", Order: 1, Text: "just talk"},
	}}
	svc, _, _ := newService(&fakeResolver{dataset: plain})
	view, _ := svc.Start(context.Background(), "math", "start")

	_, err := svc.Answer(context.Background(), view.SessionID, 1)
	if status, code := statusOf(t, err); status != 409 || code != "no_quiz_pending" {
		t.Fatalf("got (%d, %s), want (409, no_quiz_pending)", status, code)
	}
}

func TestEnd_DiscardsWithoutHandOff(t *testing.T) {
	svc, sessions, reviews := newService(&fakeResolver{dataset: quizDataset()})
	ctx := context.Background()
	view, _ := svc.Start(ctx, "math", "start")

	if _, err := svc.Answer(ctx, view.SessionID, 1); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := svc.End(ctx, view.SessionID); err != nil {
		t.Fatalf("end: %v", err)
	}
	if len(sessions.records) != 0 || len(reviews.items) != 0 {
		t.Fatalf("teardown must not persist anything, got %d records %d items",
			len(sessions.records), len(reviews.items))
	}
	if err := svc.End(ctx, view.SessionID); err == nil {
		t.Fatalf("expected not-found on double teardown")
	}
}

func TestGet_UnknownSession(t *testing.T) {
	svc, _, _ := newService(&fakeResolver{dataset: quizDataset()})
	_, err := svc.Get(context.Background(), uuid.New())
	if status, code := statusOf(t, err); status != 404 || code != "session_not_found" {
		t.Fatalf("got (%d, %s), want (404, session_not_found)", status, code)
	}
}
