package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/nfcelis/examspot/config"
	"github.com/nfcelis/examspot/internal/grading"
	"github.com/nfcelis/examspot/internal/metrics"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// GradingService turns an attempt's recorded answers into per-question
// grades and an aggregate score. Deterministic question types go through the
// grading package; open_ended answers go through the AI grader, one at a
// time. Each grade is persisted onto its ExamAnswer row before the next
// answer is processed; a persistence failure is recorded but does not stop
// the remaining answers from being graded.
type GradingService interface {
	GradeAttempt(ctx context.Context, questions []model.Question, answers []model.ExamAnswer) (totalScore, maxScore int, err error)
}

type gradingService struct {
	answerRepo repository.AnswerRepository
	aiGrader   AIGraderService
	cfg        *config.Config
}

func NewGradingService(answerRepo repository.AnswerRepository, aiGrader AIGraderService, cfg *config.Config) GradingService {
	return &gradingService{answerRepo: answerRepo, aiGrader: aiGrader, cfg: cfg}
}

func (s *gradingService) GradeAttempt(ctx context.Context, questions []model.Question, answers []model.ExamAnswer) (int, int, error) {
	maxScore := 0
	questionMap := make(map[uint]model.Question, len(questions))
	for _, q := range questions {
		maxScore += q.Points
		questionMap[q.ID] = q
	}

	totalScore := 0
	var persistErrs []error

	for i := range answers {
		answer := &answers[i]
		question, ok := questionMap[answer.QuestionID]
		if !ok {
			// Orphaned answer; one stray row must not fail the whole pass.
			log.Warn().Uint("questionID", answer.QuestionID).Uint("attemptID", answer.AttemptID).
				Msg("GradeAttempt: answer references a question not in this exam, skipping")
			continue
		}

		var result grading.Result
		var feedback *string
		var analysis datatypes.JSON

		switch question.Type {
		case model.QuestionMultipleChoice:
			result = grading.GradeMultipleChoice(&question, answer.UserAnswer)
		case model.QuestionFillBlank:
			result = grading.GradeFillBlank(&question, answer.UserAnswer)
		case model.QuestionMatching:
			result = grading.GradeMatching(&question, answer.UserAnswer)
		case model.QuestionOpenEnded:
			result, feedback, analysis = s.gradeOpenEnded(ctx, &question, answer)
		default:
			log.Warn().Str("type", string(question.Type)).Uint("questionID", question.ID).
				Msg("GradeAttempt: unknown question type, awarding zero credit")
		}

		metrics.GradedAnswers.WithLabelValues(string(question.Type), outcomeLabel(result.IsCorrect)).Inc()

		isCorrect := result.IsCorrect
		score := result.Score
		answer.IsCorrect = &isCorrect
		answer.Score = &score
		answer.Feedback = feedback
		answer.AIAnalysis = analysis

		if err := s.answerRepo.UpdateGrade(answer); err != nil {
			log.Error().Err(err).Uint("answerID", answer.ID).Msg("GradeAttempt: failed to persist answer grade")
			persistErrs = append(persistErrs, fmt.Errorf("answer %d (question %d): %w", answer.ID, answer.QuestionID, err))
		}

		totalScore += score
	}

	// Questions nobody answered contribute zero to totalScore but their
	// points are already counted in maxScore.
	return totalScore, maxScore, errors.Join(persistErrs...)
}

func (s *gradingService) gradeOpenEnded(ctx context.Context, question *model.Question, answer *model.ExamAnswer) (grading.Result, *string, datatypes.JSON) {
	text := string(grading.DecodeText(answer.UserAnswer))
	aiResult := s.aiGrader.GradeOpenEnded(ctx, question, text)

	// The adapter trusts the collaborator's score; clamp defensively here
	// before anything is persisted or aggregated.
	score := int(math.Round(aiResult.Score))
	if score < 0 {
		score = 0
	}
	if score > question.Points {
		score = question.Points
	}

	// The threshold marks "correct" for reporting only; the awarded score
	// is the clamped AI score either way.
	isCorrect := float64(score) >= s.cfg.Grading.CorrectThreshold*float64(question.Points)

	feedback := aiResult.Feedback
	analysis, err := json.Marshal(aiResult)
	if err != nil {
		log.Error().Err(err).Uint("questionID", question.ID).Msg("GradeAttempt: failed to encode AI analysis")
		analysis = nil
	}

	return grading.Result{IsCorrect: isCorrect, Score: score}, &feedback, datatypes.JSON(analysis)
}

func outcomeLabel(correct bool) string {
	if correct {
		return "correct"
	}
	return "incorrect"
}
