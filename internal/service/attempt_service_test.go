package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/model"
	"gorm.io/gorm"
)

type attemptFixture struct {
	svc         AttemptService
	attemptRepo *fakeAttemptRepo
	answerRepo  *fakeAnswerRepo
	buffer      *AnswerBuffer
}

func newAttemptFixture(t *testing.T, exam *model.Exam, questions []model.Question, ai *fakeAIGrader) *attemptFixture {
	t.Helper()
	if ai == nil {
		ai = &fakeAIGrader{}
	}
	answerRepo := newFakeAnswerRepo()
	attemptRepo := newFakeAttemptRepo()
	buffer := NewAnswerBuffer(answerRepo)
	grader := NewGradingService(answerRepo, ai, testConfig())
	svc := NewAttemptService(attemptRepo, answerRepo, newFakeExamRepo(exam), &fakeQuestionRepo{questions: questions}, grader, buffer)
	return &attemptFixture{svc: svc, attemptRepo: attemptRepo, answerRepo: answerRepo, buffer: buffer}
}

func publishedExam() *model.Exam {
	return &model.Exam{ID: 1, Title: "Biology midterm", Status: model.ExamPublished, CreatedBy: 9}
}

func saveAnswer(t *testing.T, svc AttemptService, attemptID, userID, questionID uint, payload string) {
	t.Helper()
	err := svc.SaveAnswer(attemptID, userID, dto.SaveAnswerDTO{
		QuestionID: questionID,
		UserAnswer: json.RawMessage(payload),
	})
	if err != nil {
		t.Fatalf("SaveAnswer(q%d): %v", questionID, err)
	}
}

func TestAttemptFullFlow(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `2`, "a", "b", "c")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if attempt.Status != model.AttemptInProgress {
		t.Fatalf("new attempt status = %s", attempt.Status)
	}

	saveAnswer(t, f.svc, attempt.ID, 5, 1, `2`)

	result, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if result.Status != model.AttemptCompleted {
		t.Errorf("status = %s, want completed", result.Status)
	}
	if result.Score == nil || *result.Score != 10 {
		t.Errorf("score = %v, want 10", result.Score)
	}
	if result.MaxScore == nil || *result.MaxScore != 10 {
		t.Errorf("maxScore = %v, want 10", result.MaxScore)
	}
	if result.Percentage == nil || *result.Percentage != 100 {
		t.Errorf("percentage = %v, want 100", result.Percentage)
	}
	if result.CompletedAt == nil || result.TimeSpent == nil {
		t.Errorf("completed attempt must carry completion time and duration")
	}
	if f.buffer.Len() != 0 {
		t.Errorf("submit must flush the buffer, %d entries left", f.buffer.Len())
	}
}

func TestAttemptFillBlankCaseInsensitive(t *testing.T) {
	key, _ := json.Marshal([]string{"Mitochondria", "ATP"})
	questions := []model.Question{{
		ID: 1, ExamID: 1, Type: model.QuestionFillBlank,
		CorrectAnswer: key, Points: 10,
	}}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	saveAnswer(t, f.svc, attempt.ID, 5, 1, `[" mitochondria ", "atp"]`)

	result, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if result.Score == nil || *result.Score != 10 {
		t.Errorf("score = %v, want 10 (comparison ignores case and padding)", result.Score)
	}
}

func TestAttemptDoubleSubmit(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `0`, "a", "b")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	saveAnswer(t, f.svc, attempt.ID, 5, 1, `0`)

	first, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5)
	if err != nil {
		t.Fatalf("first SubmitAttempt: %v", err)
	}

	_, err = f.svc.SubmitAttempt(context.Background(), attempt.ID, 5)
	if !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("second submit error = %v, want ErrAttemptCompleted", err)
	}

	stored, _ := f.attemptRepo.FindByID(attempt.ID)
	if *stored.Score != *first.Score {
		t.Errorf("second submit changed the stored score: %d != %d", *stored.Score, *first.Score)
	}
}

func TestAttemptDuplicateStartRejected(t *testing.T) {
	f := newAttemptFixture(t, publishedExam(), nil, nil)

	if _, err := f.svc.StartAttempt(1, 5); err != nil {
		t.Fatalf("first StartAttempt: %v", err)
	}
	if _, err := f.svc.StartAttempt(1, 5); !errors.Is(err, ErrActiveAttemptExists) {
		t.Fatalf("second start error = %v, want ErrActiveAttemptExists", err)
	}

	// Another student is unaffected.
	if _, err := f.svc.StartAttempt(1, 6); err != nil {
		t.Fatalf("other user's StartAttempt: %v", err)
	}
}

func TestAttemptStartDraftExamRejected(t *testing.T) {
	draft := &model.Exam{ID: 1, Title: "WIP", Status: model.ExamDraft}
	f := newAttemptFixture(t, draft, nil, nil)

	if _, err := f.svc.StartAttempt(1, 5); !errors.Is(err, ErrExamNotTakeable) {
		t.Fatalf("error = %v, want ErrExamNotTakeable", err)
	}
}

func TestAttemptSubmitEmptyExamZeroPercent(t *testing.T) {
	f := newAttemptFixture(t, publishedExam(), nil, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	result, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if result.Percentage == nil || *result.Percentage != 0 {
		t.Errorf("percentage = %v, want 0 when there is nothing to score", result.Percentage)
	}
}

func TestAttemptSubmitFlushFailureAborts(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `0`, "a", "b")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	saveAnswer(t, f.svc, attempt.ID, 5, 1, `0`)

	f.answerRepo.failUpsert = true
	if _, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5); err == nil {
		t.Fatalf("submit must fail when buffered answers cannot be flushed")
	}

	stored, _ := f.attemptRepo.FindByID(attempt.ID)
	if stored.Status != model.AttemptInProgress {
		t.Errorf("attempt must stay in progress after an aborted submit, got %s", stored.Status)
	}

	// The flush failure re-queued the answer; the retry succeeds.
	f.answerRepo.failUpsert = false
	if _, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5); err != nil {
		t.Fatalf("retried submit: %v", err)
	}
}

func TestAttemptAccessControl(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `0`, "a", "b")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}

	err = f.svc.SaveAnswer(attempt.ID, 6, dto.SaveAnswerDTO{QuestionID: 1, UserAnswer: json.RawMessage(`0`)})
	if !errors.Is(err, ErrNotAttemptOwner) {
		t.Errorf("SaveAnswer by stranger = %v, want ErrNotAttemptOwner", err)
	}
	if _, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 6); !errors.Is(err, ErrNotAttemptOwner) {
		t.Errorf("SubmitAttempt by stranger = %v, want ErrNotAttemptOwner", err)
	}
	if _, err := f.svc.GetAttempt(attempt.ID, 6); !errors.Is(err, ErrNotAttemptOwner) {
		t.Errorf("GetAttempt by stranger = %v, want ErrNotAttemptOwner", err)
	}
}

func TestSubmitOverdueAttemptsGrades(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `0`, "a", "b")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	saveAnswer(t, f.svc, attempt.ID, 5, 1, `0`)

	f.attemptRepo.expiredIDs = []uint{attempt.ID}
	f.svc.SubmitOverdueAttempts(context.Background())

	stored, _ := f.attemptRepo.FindByID(attempt.ID)
	if stored.Status != model.AttemptCompleted {
		t.Fatalf("overdue attempt status = %s, want completed", stored.Status)
	}
	if stored.Score == nil || *stored.Score != 10 {
		t.Errorf("score = %v, want 10 (force-submit must grade buffered answers)", stored.Score)
	}
	if stored.Percentage == nil || *stored.Percentage != 100 {
		t.Errorf("percentage = %v, want 100", stored.Percentage)
	}
	if f.buffer.Len() != 0 {
		t.Errorf("force-submit must flush the buffer, %d entries left", f.buffer.Len())
	}
}

func TestSubmitOverdueAttemptsSkipsSubmitRace(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `0`, "a", "b")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	saveAnswer(t, f.svc, attempt.ID, 5, 1, `0`)
	first, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5)
	if err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	// The sweep saw the attempt before the user's submit landed; its
	// completion CAS finds zero rows and the stored result stands.
	f.attemptRepo.expiredIDs = []uint{attempt.ID}
	f.svc.SubmitOverdueAttempts(context.Background())

	stored, _ := f.attemptRepo.FindByID(attempt.ID)
	if *stored.Score != *first.Score {
		t.Errorf("sweep changed the stored score: %d != %d", *stored.Score, *first.Score)
	}
	if !stored.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("sweep changed the completion time")
	}
}

func TestListExamAttempts(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `0`, "a", "b")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	first, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	saveAnswer(t, f.svc, first.ID, 5, 1, `0`)
	if _, err := f.svc.SubmitAttempt(context.Background(), first.ID, 5); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}
	if _, err := f.svc.StartAttempt(1, 6); err != nil {
		t.Fatalf("second student StartAttempt: %v", err)
	}

	attempts, err := f.svc.ListExamAttempts(1)
	if err != nil {
		t.Fatalf("ListExamAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("got %d attempts, want 2", len(attempts))
	}
	byUser := make(map[uint]dto.AttemptSummaryDTO, len(attempts))
	for _, a := range attempts {
		if a.ExamTitle != "Biology midterm" {
			t.Errorf("summary missing exam title: %+v", a)
		}
		byUser[a.UserID] = a
	}
	if got := byUser[5]; got.Status != model.AttemptCompleted || got.Score == nil || *got.Score != 10 {
		t.Errorf("completed attempt summary wrong: %+v", got)
	}
	if got := byUser[6]; got.Status != model.AttemptInProgress || got.Score != nil {
		t.Errorf("in-progress attempt summary wrong: %+v", got)
	}

	if _, err := f.svc.ListExamAttempts(99); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("unknown exam error = %v, want record not found", err)
	}
}

func TestStartAttemptStorageFailureNotConflict(t *testing.T) {
	f := newAttemptFixture(t, publishedExam(), nil, nil)

	f.attemptRepo.failCreate = true
	_, err := f.svc.StartAttempt(1, 5)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if errors.Is(err, ErrActiveAttemptExists) {
		t.Errorf("storage failure must not masquerade as an active-attempt conflict")
	}
}

func TestAttemptSaveAnswerAfterCompletionRejected(t *testing.T) {
	questions := []model.Question{mcQuestion(1, 10, `0`, "a", "b")}
	f := newAttemptFixture(t, publishedExam(), questions, nil)

	attempt, err := f.svc.StartAttempt(1, 5)
	if err != nil {
		t.Fatalf("StartAttempt: %v", err)
	}
	if _, err := f.svc.SubmitAttempt(context.Background(), attempt.ID, 5); err != nil {
		t.Fatalf("SubmitAttempt: %v", err)
	}

	err = f.svc.SaveAnswer(attempt.ID, 5, dto.SaveAnswerDTO{QuestionID: 1, UserAnswer: json.RawMessage(`0`)})
	if !errors.Is(err, ErrAttemptCompleted) {
		t.Errorf("SaveAnswer after completion = %v, want ErrAttemptCompleted", err)
	}
}
