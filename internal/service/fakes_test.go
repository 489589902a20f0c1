package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nfcelis/examspot/config"
	"github.com/nfcelis/examspot/internal/grading"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"gorm.io/gorm"
)

// In-memory repository fakes shared by the service tests. They mimic the
// database behaviors the services rely on: the answer upsert key, the
// compare-and-swap on attempt completion, and the one-active-attempt index.

type answerKey struct {
	attemptID  uint
	questionID uint
}

type fakeAnswerRepo struct {
	answers map[answerKey]*model.ExamAnswer
	order   []answerKey
	nextID  uint

	failUpsert        bool
	failUpsertForQIDs map[uint]bool
	failGradeForQIDs  map[uint]bool
	upsertCalls       int
	gradeCalls        int
}

func newFakeAnswerRepo() *fakeAnswerRepo {
	return &fakeAnswerRepo{answers: make(map[answerKey]*model.ExamAnswer), nextID: 1}
}

func (r *fakeAnswerRepo) Upsert(answer *model.ExamAnswer) error {
	r.upsertCalls++
	if r.failUpsert || r.failUpsertForQIDs[answer.QuestionID] {
		return fmt.Errorf("upsert failed")
	}
	key := answerKey{attemptID: answer.AttemptID, questionID: answer.QuestionID}
	if existing, ok := r.answers[key]; ok {
		existing.UserAnswer = answer.UserAnswer
		return nil
	}
	stored := *answer
	stored.ID = r.nextID
	r.nextID++
	r.answers[key] = &stored
	r.order = append(r.order, key)
	return nil
}

func (r *fakeAnswerRepo) UpdateGrade(answer *model.ExamAnswer) error {
	r.gradeCalls++
	if r.failGradeForQIDs[answer.QuestionID] {
		return fmt.Errorf("grade persist failed")
	}
	for _, stored := range r.answers {
		if stored.ID == answer.ID {
			stored.IsCorrect = answer.IsCorrect
			stored.Score = answer.Score
			stored.Feedback = answer.Feedback
			stored.AIAnalysis = answer.AIAnalysis
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAnswerRepo) FindByAttemptID(attemptID uint) ([]model.ExamAnswer, error) {
	var out []model.ExamAnswer
	for _, key := range r.order {
		if key.attemptID == attemptID {
			out = append(out, *r.answers[key])
		}
	}
	return out, nil
}

type fakeAttemptRepo struct {
	attempts map[uint]*model.ExamAttempt
	nextID   uint

	// expiredIDs drives FindExpired. Returned rows are snapshots taken as
	// in_progress, the way a sweep sees them just before a user submit races
	// it to completion.
	expiredIDs []uint
	failCreate bool
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[uint]*model.ExamAttempt), nextID: 1}
}

func (r *fakeAttemptRepo) Create(attempt *model.ExamAttempt) error {
	if r.failCreate {
		return fmt.Errorf("connection refused")
	}
	for _, existing := range r.attempts {
		if existing.ExamID == attempt.ExamID && existing.UserID == attempt.UserID &&
			existing.Status == model.AttemptInProgress {
			return fmt.Errorf("duplicate key value violates unique constraint")
		}
	}
	attempt.ID = r.nextID
	r.nextID++
	stored := *attempt
	r.attempts[attempt.ID] = &stored
	return nil
}

func (r *fakeAttemptRepo) FindByID(id uint) (*model.ExamAttempt, error) {
	attempt, ok := r.attempts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *attempt
	return &copied, nil
}

func (r *fakeAttemptRepo) FindByIDWithAnswers(id uint) (*model.ExamAttempt, error) {
	return r.FindByID(id)
}

func (r *fakeAttemptRepo) FindActive(examID, userID uint) (*model.ExamAttempt, error) {
	for _, attempt := range r.attempts {
		if attempt.ExamID == examID && attempt.UserID == userID && attempt.Status == model.AttemptInProgress {
			copied := *attempt
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) FindAllByUser(userID uint) ([]model.ExamAttempt, error) {
	var out []model.ExamAttempt
	for _, attempt := range r.attempts {
		if attempt.UserID == userID {
			out = append(out, *attempt)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) FindAllByExam(examID uint) ([]model.ExamAttempt, error) {
	var out []model.ExamAttempt
	for _, attempt := range r.attempts {
		if attempt.ExamID == examID {
			out = append(out, *attempt)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) FindExpired(now time.Time) ([]model.ExamAttempt, error) {
	var out []model.ExamAttempt
	for _, id := range r.expiredIDs {
		if attempt, ok := r.attempts[id]; ok {
			snapshot := *attempt
			snapshot.Status = model.AttemptInProgress
			out = append(out, snapshot)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) Complete(attempt *model.ExamAttempt) (int64, error) {
	stored, ok := r.attempts[attempt.ID]
	if !ok || stored.Status != model.AttemptInProgress {
		return 0, nil
	}
	stored.Status = model.AttemptCompleted
	stored.CompletedAt = attempt.CompletedAt
	stored.TimeSpent = attempt.TimeSpent
	stored.Score = attempt.Score
	stored.MaxScore = attempt.MaxScore
	stored.Percentage = attempt.Percentage
	return 1, nil
}

type fakeExamRepo struct {
	exams map[uint]*model.Exam
}

func newFakeExamRepo(exams ...*model.Exam) *fakeExamRepo {
	repo := &fakeExamRepo{exams: make(map[uint]*model.Exam)}
	for _, exam := range exams {
		repo.exams[exam.ID] = exam
	}
	return repo
}

func (r *fakeExamRepo) Create(exam *model.Exam) error {
	r.exams[exam.ID] = exam
	return nil
}

func (r *fakeExamRepo) FindByID(id uint) (*model.Exam, error) {
	exam, ok := r.exams[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return exam, nil
}

func (r *fakeExamRepo) FindByIDWithQuestions(id uint) (*model.Exam, error) {
	return r.FindByID(id)
}

func (r *fakeExamRepo) FindAll(filter repository.ExamFilter) ([]model.Exam, error) {
	var out []model.Exam
	for _, exam := range r.exams {
		if filter.Status != "" && exam.Status != filter.Status {
			continue
		}
		out = append(out, *exam)
	}
	return out, nil
}

func (r *fakeExamRepo) Update(exam *model.Exam) error {
	r.exams[exam.ID] = exam
	return nil
}

func (r *fakeExamRepo) Delete(id uint) error {
	delete(r.exams, id)
	return nil
}

type fakeQuestionRepo struct {
	questions []model.Question
}

func (r *fakeQuestionRepo) Create(question *model.Question) error {
	r.questions = append(r.questions, *question)
	return nil
}

func (r *fakeQuestionRepo) FindByID(id uint) (*model.Question, error) {
	for i := range r.questions {
		if r.questions[i].ID == id {
			return &r.questions[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) FindByExamID(examID uint) ([]model.Question, error) {
	var out []model.Question
	for _, q := range r.questions {
		if q.ExamID == examID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) Update(question *model.Question) error { return nil }
func (r *fakeQuestionRepo) Delete(id uint) error                  { return nil }

// fakeAIGrader returns a scripted result per question ID, falling back to a
// zero-score degraded result like the real adapter does.
type fakeAIGrader struct {
	results map[uint]grading.AIResult
	calls   int
}

func (g *fakeAIGrader) GradeOpenEnded(ctx context.Context, question *model.Question, userAnswer string) grading.AIResult {
	g.calls++
	if result, ok := g.results[question.ID]; ok {
		return result
	}
	return fallbackResult()
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Grading.AITimeout = time.Second
	cfg.Grading.CorrectThreshold = 0.7
	cfg.Grading.FlushInterval = time.Second
	return cfg
}
