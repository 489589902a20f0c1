package service

import (
	"encoding/json"
	"fmt"

	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/grading"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

type QuestionService interface {
	AddQuestion(examID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
	UpdateQuestion(questionID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error)
	DeleteQuestion(questionID uint) error
}

type questionService struct {
	questionRepo repository.QuestionRepository
	examRepo     repository.ExamRepository
}

func NewQuestionService(questionRepo repository.QuestionRepository, examRepo repository.ExamRepository) QuestionService {
	return &questionService{questionRepo: questionRepo, examRepo: examRepo}
}

func (s *questionService) AddQuestion(examID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	if _, err := s.examRepo.FindByID(examID); err != nil {
		return nil, err
	}
	question, err := questionFromCreateDTO(examID, req)
	if err != nil {
		return nil, err
	}
	if err := s.questionRepo.Create(question); err != nil {
		return nil, err
	}
	return questionToResponse(question), nil
}

func (s *questionService) UpdateQuestion(questionID uint, req dto.QuestionCreateDTO) (*dto.QuestionResponseDTO, error) {
	existing, err := s.questionRepo.FindByID(questionID)
	if err != nil {
		return nil, err
	}
	updated, err := questionFromCreateDTO(existing.ExamID, req)
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	if err := s.questionRepo.Update(updated); err != nil {
		return nil, err
	}
	return questionToResponse(updated), nil
}

func (s *questionService) DeleteQuestion(questionID uint) error {
	if _, err := s.questionRepo.FindByID(questionID); err != nil {
		return err
	}
	return s.questionRepo.Delete(questionID)
}

// questionFromCreateDTO validates the answer key against the question type
// before anything is stored. A key the graders cannot decode would silently
// zero every future attempt.
func questionFromCreateDTO(examID uint, req dto.QuestionCreateDTO) (*model.Question, error) {
	question := &model.Question{
		ExamID:             examID,
		Type:               model.QuestionType(req.Type),
		QuestionText:       req.QuestionText,
		Points:             req.Points,
		AllowPartialCredit: req.AllowPartialCredit,
		Explanation:        req.Explanation,
		OrderIndex:         req.OrderIndex,
	}

	if len(req.Options) > 0 {
		raw, err := json.Marshal(req.Options)
		if err != nil {
			return nil, err
		}
		question.Options = datatypes.JSON(raw)
	}
	question.CorrectAnswer = datatypes.JSON(req.CorrectAnswer)

	switch question.Type {
	case model.QuestionMultipleChoice:
		if len(req.Options) < 2 {
			return nil, fmt.Errorf("multiple_choice question needs at least 2 options")
		}
		if err := grading.ValidateChoiceKey(question.CorrectAnswer, len(req.Options)); err != nil {
			return nil, err
		}
	case model.QuestionFillBlank:
		if err := grading.ValidateBlankKey(question.CorrectAnswer); err != nil {
			return nil, err
		}
	case model.QuestionMatching:
		if len(req.Terms) < 2 {
			return nil, fmt.Errorf("matching question needs at least 2 term pairs")
		}
		raw, err := json.Marshal(req.Terms)
		if err != nil {
			return nil, err
		}
		question.Terms = datatypes.JSON(raw)
	case model.QuestionOpenEnded:
		// Model answer is optional; the AI grader works without one.
	}

	return question, nil
}

func questionToResponse(q *model.Question) *dto.QuestionResponseDTO {
	resp := &dto.QuestionResponseDTO{
		ID:                 q.ID,
		ExamID:             q.ExamID,
		Type:               q.Type,
		QuestionText:       q.QuestionText,
		CorrectAnswer:      json.RawMessage(q.CorrectAnswer),
		Points:             q.Points,
		AllowPartialCredit: q.AllowPartialCredit,
		Explanation:        q.Explanation,
		OrderIndex:         q.OrderIndex,
	}
	resp.Options = decodeOptions(q.Options)
	if terms, err := grading.DecodeTerms(q); err == nil {
		resp.Terms = terms
	}
	return resp
}

// questionToTakerDTO strips everything a student must not see. Matching
// definitions come back as a bare list so the client can shuffle them.
func questionToTakerDTO(q *model.Question) dto.TakerQuestionDTO {
	taker := dto.TakerQuestionDTO{
		ID:           q.ID,
		Type:         q.Type,
		QuestionText: q.QuestionText,
		Options:      decodeOptions(q.Options),
		Points:       q.Points,
		OrderIndex:   q.OrderIndex,
	}
	if q.Type == model.QuestionMatching {
		terms, err := grading.DecodeTerms(q)
		if err != nil {
			log.Warn().Err(err).Uint("questionID", q.ID).Msg("matching question has undecodable terms")
			return taker
		}
		for _, pair := range terms {
			taker.Terms = append(taker.Terms, pair.Term)
			taker.Definitions = append(taker.Definitions, pair.Definition)
		}
	}
	return taker
}

func decodeOptions(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil
	}
	return options
}
