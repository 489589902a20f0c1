package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/grading"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AttemptService drives the attempt lifecycle: start, autosave, submit. A
// submit flushes buffered answers, grades them, then performs the terminal
// in_progress -> completed transition; once completed an attempt is
// immutable.
type AttemptService interface {
	StartAttempt(examID, userID uint) (*dto.AttemptDTO, error)
	SaveAnswer(attemptID, userID uint, req dto.SaveAnswerDTO) error
	SubmitAttempt(ctx context.Context, attemptID, userID uint) (*dto.AttemptResultDTO, error)
	GetAttempt(attemptID, userID uint) (*dto.AttemptResultDTO, error)
	ListMyAttempts(userID uint) ([]dto.AttemptSummaryDTO, error)
	ListExamAttempts(examID uint) ([]dto.AttemptSummaryDTO, error)
	SubmitOverdueAttempts(ctx context.Context)
}

type attemptService struct {
	attemptRepo  repository.AttemptRepository
	answerRepo   repository.AnswerRepository
	examRepo     repository.ExamRepository
	questionRepo repository.QuestionRepository
	grader       GradingService
	buffer       *AnswerBuffer
}

func NewAttemptService(
	attemptRepo repository.AttemptRepository,
	answerRepo repository.AnswerRepository,
	examRepo repository.ExamRepository,
	questionRepo repository.QuestionRepository,
	grader GradingService,
	buffer *AnswerBuffer,
) AttemptService {
	return &attemptService{
		attemptRepo:  attemptRepo,
		answerRepo:   answerRepo,
		examRepo:     examRepo,
		questionRepo: questionRepo,
		grader:       grader,
		buffer:       buffer,
	}
}

func (s *attemptService) StartAttempt(examID, userID uint) (*dto.AttemptDTO, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		return nil, err
	}
	if exam.Status != model.ExamPublished {
		return nil, ErrExamNotTakeable
	}

	if _, err := s.attemptRepo.FindActive(examID, userID); err == nil {
		return nil, ErrActiveAttemptExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	attempt := &model.ExamAttempt{
		ExamID:    examID,
		UserID:    userID,
		Status:    model.AttemptInProgress,
		StartedAt: time.Now(),
	}
	if err := s.attemptRepo.Create(attempt); err != nil {
		// The partial unique index backstops the read check above when two
		// starts race; anything else is a real storage failure.
		if _, findErr := s.attemptRepo.FindActive(examID, userID); findErr == nil {
			return nil, ErrActiveAttemptExists
		}
		return nil, err
	}
	return attemptToDTO(attempt), nil
}

func (s *attemptService) SaveAnswer(attemptID, userID uint, req dto.SaveAnswerDTO) error {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.UserID != userID {
		return ErrNotAttemptOwner
	}
	if attempt.IsCompleted() {
		return ErrAttemptCompleted
	}
	s.buffer.Put(attemptID, req.QuestionID, datatypes.JSON(req.UserAnswer))
	return nil
}

func (s *attemptService) SubmitAttempt(ctx context.Context, attemptID, userID uint) (*dto.AttemptResultDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, ErrNotAttemptOwner
	}
	if attempt.IsCompleted() {
		return nil, ErrAttemptCompleted
	}
	return s.submit(ctx, attempt)
}

// submit is the shared grading path for user submits and time-up
// force-submits. The caller has already verified the attempt is in_progress.
func (s *attemptService) submit(ctx context.Context, attempt *model.ExamAttempt) (*dto.AttemptResultDTO, error) {
	// Buffered answers must hit the database before grading reads them
	// back; an incomplete flush would silently grade stale data.
	if err := s.buffer.FlushAttempt(attempt.ID); err != nil {
		return nil, err
	}

	questions, err := s.questionRepo.FindByExamID(attempt.ExamID)
	if err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.FindByAttemptID(attempt.ID)
	if err != nil {
		return nil, err
	}

	totalScore, maxScore, err := s.grader.GradeAttempt(ctx, questions, answers)
	if err != nil {
		// Some grades did not persist; leave the attempt in_progress so
		// the submit can be retried.
		return nil, err
	}

	now := time.Now()
	timeSpent := int(now.Sub(attempt.StartedAt).Seconds())
	percentage := 0
	if maxScore > 0 {
		percentage = int(math.Round(100 * float64(totalScore) / float64(maxScore)))
	}

	attempt.Status = model.AttemptCompleted
	attempt.CompletedAt = &now
	attempt.TimeSpent = &timeSpent
	attempt.Score = &totalScore
	attempt.MaxScore = &maxScore
	attempt.Percentage = &percentage

	rows, err := s.attemptRepo.Complete(attempt)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrAttemptCompleted
	}

	return s.buildResult(attempt.ID)
}

func (s *attemptService) GetAttempt(attemptID, userID uint) (*dto.AttemptResultDTO, error) {
	attempt, err := s.attemptRepo.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, ErrNotAttemptOwner
	}
	return s.buildResult(attemptID)
}

func (s *attemptService) ListMyAttempts(userID uint) ([]dto.AttemptSummaryDTO, error) {
	attempts, err := s.attemptRepo.FindAllByUser(userID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for _, a := range attempts {
		summaries = append(summaries, attemptToSummary(&a, a.Exam.Title))
	}
	return summaries, nil
}

// ListExamAttempts is the teacher's results view: every attempt on one exam.
func (s *attemptService) ListExamAttempts(examID uint) ([]dto.AttemptSummaryDTO, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attemptRepo.FindAllByExam(examID)
	if err != nil {
		return nil, err
	}
	summaries := make([]dto.AttemptSummaryDTO, 0, len(attempts))
	for _, a := range attempts {
		summaries = append(summaries, attemptToSummary(&a, exam.Title))
	}
	return summaries, nil
}

func attemptToSummary(a *model.ExamAttempt, examTitle string) dto.AttemptSummaryDTO {
	return dto.AttemptSummaryDTO{
		ID:          a.ID,
		ExamID:      a.ExamID,
		UserID:      a.UserID,
		ExamTitle:   examTitle,
		Status:      a.Status,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		Score:       a.Score,
		MaxScore:    a.MaxScore,
		Percentage:  a.Percentage,
	}
}

// SubmitOverdueAttempts force-submits every in_progress attempt whose exam
// time limit has elapsed. Runs on a background ticker; a failed attempt is
// logged and retried on the next pass.
func (s *attemptService) SubmitOverdueAttempts(ctx context.Context) {
	overdue, err := s.attemptRepo.FindExpired(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("SubmitOverdueAttempts: failed to find expired attempts")
		return
	}
	for i := range overdue {
		attempt := &overdue[i]
		if _, err := s.submit(ctx, attempt); err != nil {
			if errors.Is(err, ErrAttemptCompleted) {
				continue
			}
			log.Error().Err(err).Uint("attemptID", attempt.ID).Msg("SubmitOverdueAttempts: force-submit failed")
			continue
		}
		log.Info().Uint("attemptID", attempt.ID).Uint("examID", attempt.ExamID).Msg("attempt force-submitted after time limit")
	}
}

func (s *attemptService) buildResult(attemptID uint) (*dto.AttemptResultDTO, error) {
	attempt, err := s.attemptRepo.FindByIDWithAnswers(attemptID)
	if err != nil {
		return nil, err
	}

	result := &dto.AttemptResultDTO{
		AttemptDTO: *attemptToDTO(attempt),
		ExamTitle:  attempt.Exam.Title,
	}
	for _, answer := range attempt.Answers {
		item := dto.AnswerResultDTO{
			QuestionID: answer.QuestionID,
			UserAnswer: json.RawMessage(answer.UserAnswer),
			IsCorrect:  answer.IsCorrect,
			Score:      answer.Score,
			Feedback:   answer.Feedback,
		}
		if len(answer.AIAnalysis) > 0 {
			item.AIAnalysis = decodeAIAnalysis(answer.AIAnalysis)
		}
		result.Answers = append(result.Answers, item)
	}
	return result, nil
}

func decodeAIAnalysis(raw datatypes.JSON) *grading.AIResult {
	var analysis grading.AIResult
	if err := json.Unmarshal(raw, &analysis); err != nil {
		log.Warn().Err(err).Msg("stored AI analysis is not decodable")
		return nil
	}
	return &analysis
}

func attemptToDTO(a *model.ExamAttempt) *dto.AttemptDTO {
	return &dto.AttemptDTO{
		ID:          a.ID,
		ExamID:      a.ExamID,
		UserID:      a.UserID,
		Status:      a.Status,
		StartedAt:   a.StartedAt,
		CompletedAt: a.CompletedAt,
		TimeSpent:   a.TimeSpent,
		Score:       a.Score,
		MaxScore:    a.MaxScore,
		Percentage:  a.Percentage,
	}
}
