package service

import (
	"github.com/jinzhu/copier"
	"github.com/nfcelis/examspot/internal/dto"
	"github.com/nfcelis/examspot/internal/model"
	"github.com/nfcelis/examspot/internal/repository"
)

type ExamService interface {
	CreateExam(userID uint, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error)
	GetExam(examID uint) (*dto.ExamResponseDTO, error)
	ListExams(filter dto.ExamFilterDTO, createdBy uint) ([]dto.ExamSummaryDTO, error)
	UpdateExam(examID uint, req dto.ExamUpdateDTO) (*dto.ExamResponseDTO, error)
	DeleteExam(examID uint) error

	// Student-facing views. ListPublished hides drafts and archived exams;
	// GetExamForTaking strips answer keys and explanations.
	ListPublished(search string) ([]dto.ExamSummaryDTO, error)
	GetExamForTaking(examID uint) (*dto.ExamResponseDTO, []dto.TakerQuestionDTO, error)
}

type examService struct {
	examRepo repository.ExamRepository
}

func NewExamService(examRepo repository.ExamRepository) ExamService {
	return &examService{examRepo: examRepo}
}

func (s *examService) CreateExam(userID uint, req dto.ExamCreateDTO) (*dto.ExamResponseDTO, error) {
	exam := &model.Exam{
		Title:          req.Title,
		Description:    req.Description,
		Status:         model.ExamDraft,
		IsPublic:       req.IsPublic,
		RandomizeOrder: req.RandomizeOrder,
		TimeLimit:      req.TimeLimit,
		CreatedBy:      userID,
	}
	if req.Status != "" {
		exam.Status = model.ExamStatus(req.Status)
	}
	if err := s.examRepo.Create(exam); err != nil {
		return nil, err
	}
	return examToResponse(exam)
}

func (s *examService) GetExam(examID uint) (*dto.ExamResponseDTO, error) {
	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		return nil, err
	}
	return examToResponse(exam)
}

func (s *examService) ListExams(filter dto.ExamFilterDTO, createdBy uint) ([]dto.ExamSummaryDTO, error) {
	exams, err := s.examRepo.FindAll(repository.ExamFilter{
		Status:    model.ExamStatus(filter.Status),
		IsPublic:  filter.IsPublic,
		Search:    filter.Search,
		CreatedBy: createdBy,
	})
	if err != nil {
		return nil, err
	}
	return examsToSummaries(exams), nil
}

func (s *examService) UpdateExam(examID uint, req dto.ExamUpdateDTO) (*dto.ExamResponseDTO, error) {
	exam, err := s.examRepo.FindByID(examID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = *req.Description
	}
	if req.Status != nil {
		exam.Status = model.ExamStatus(*req.Status)
	}
	if req.IsPublic != nil {
		exam.IsPublic = *req.IsPublic
	}
	if req.RandomizeOrder != nil {
		exam.RandomizeOrder = *req.RandomizeOrder
	}
	if req.TimeLimit != nil {
		exam.TimeLimit = req.TimeLimit
	}
	if err := s.examRepo.Update(exam); err != nil {
		return nil, err
	}
	return examToResponse(exam)
}

func (s *examService) DeleteExam(examID uint) error {
	if _, err := s.examRepo.FindByID(examID); err != nil {
		return err
	}
	return s.examRepo.Delete(examID)
}

func (s *examService) ListPublished(search string) ([]dto.ExamSummaryDTO, error) {
	exams, err := s.examRepo.FindAll(repository.ExamFilter{
		Status: model.ExamPublished,
		Search: search,
	})
	if err != nil {
		return nil, err
	}
	return examsToSummaries(exams), nil
}

func (s *examService) GetExamForTaking(examID uint) (*dto.ExamResponseDTO, []dto.TakerQuestionDTO, error) {
	exam, err := s.examRepo.FindByIDWithQuestions(examID)
	if err != nil {
		return nil, nil, err
	}
	if exam.Status != model.ExamPublished {
		return nil, nil, ErrExamNotTakeable
	}

	questions := make([]dto.TakerQuestionDTO, 0, len(exam.Questions))
	for i := range exam.Questions {
		questions = append(questions, questionToTakerDTO(&exam.Questions[i]))
	}

	var resp dto.ExamResponseDTO
	if err := copier.Copy(&resp, exam); err != nil {
		return nil, nil, err
	}
	resp.Questions = nil
	return &resp, questions, nil
}

func examToResponse(exam *model.Exam) (*dto.ExamResponseDTO, error) {
	var resp dto.ExamResponseDTO
	if err := copier.Copy(&resp, exam); err != nil {
		return nil, err
	}
	// copier cannot map the jsonb columns inside questions; rebuild those.
	resp.Questions = nil
	for i := range exam.Questions {
		q := questionToResponse(&exam.Questions[i])
		resp.Questions = append(resp.Questions, *q)
	}
	return &resp, nil
}

func examsToSummaries(exams []model.Exam) []dto.ExamSummaryDTO {
	summaries := make([]dto.ExamSummaryDTO, 0, len(exams))
	for _, exam := range exams {
		total := 0
		for _, q := range exam.Questions {
			total += q.Points
		}
		summaries = append(summaries, dto.ExamSummaryDTO{
			ID:            exam.ID,
			Title:         exam.Title,
			Description:   exam.Description,
			Status:        exam.Status,
			TimeLimit:     exam.TimeLimit,
			QuestionCount: len(exam.Questions),
			TotalPoints:   total,
			CreatedAt:     exam.CreatedAt,
		})
	}
	return summaries
}
