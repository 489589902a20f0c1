package dto

import (
	"time"

	"github.com/nfcelis/examspot/internal/model"
)

type ExamCreateDTO struct {
	Title          string  `json:"title" binding:"required"`
	Description    string  `json:"description,omitempty"`
	Status         string  `json:"status" binding:"omitempty,oneof=draft published archived"`
	IsPublic       bool    `json:"is_public"`
	RandomizeOrder bool    `json:"randomize_order"`
	TimeLimit      *int    `json:"time_limit" binding:"omitempty,gt=0"`
}

type ExamUpdateDTO struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *string `json:"status" binding:"omitempty,oneof=draft published archived"`
	IsPublic       *bool   `json:"is_public"`
	RandomizeOrder *bool   `json:"randomize_order"`
	TimeLimit      *int    `json:"time_limit" binding:"omitempty,gt=0"`
}

// ExamFilterDTO narrows exam listings; all fields optional.
type ExamFilterDTO struct {
	Status   string `form:"status" binding:"omitempty,oneof=draft published archived"`
	IsPublic *bool  `form:"is_public"`
	Search   string `form:"search"`
}

type ExamResponseDTO struct {
	ID             uint                  `json:"id"`
	Title          string                `json:"title"`
	Description    string                `json:"description,omitempty"`
	Status         model.ExamStatus      `json:"status"`
	IsPublic       bool                  `json:"is_public"`
	RandomizeOrder bool                  `json:"randomize_order"`
	TimeLimit      *int                  `json:"time_limit,omitempty"`
	CreatedBy      uint                  `json:"created_by"`
	Questions      []QuestionResponseDTO `json:"questions,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ExamTakingDTO is the student-facing exam view served when an attempt
// starts: exam metadata plus answer-key-free questions.
type ExamTakingDTO struct {
	Exam      ExamResponseDTO    `json:"exam"`
	Questions []TakerQuestionDTO `json:"questions"`
}

type ExamSummaryDTO struct {
	ID            uint             `json:"id"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	Status        model.ExamStatus `json:"status"`
	TimeLimit     *int             `json:"time_limit,omitempty"`
	QuestionCount int              `json:"question_count"`
	TotalPoints   int              `json:"total_points"`
	CreatedAt     time.Time        `json:"created_at"`
}
