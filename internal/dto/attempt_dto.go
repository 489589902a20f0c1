package dto

import (
	"encoding/json"
	"time"

	"github.com/nfcelis/examspot/internal/grading"
	"github.com/nfcelis/examspot/internal/model"
)

type SaveAnswerDTO struct {
	QuestionID uint            `json:"question_id" binding:"required"`
	UserAnswer json.RawMessage `json:"user_answer" binding:"required"`
}

type AttemptDTO struct {
	ID          uint                `json:"id"`
	ExamID      uint                `json:"exam_id"`
	UserID      uint                `json:"user_id"`
	Status      model.AttemptStatus `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	TimeSpent   *int                `json:"time_spent,omitempty"`
	Score       *int                `json:"score,omitempty"`
	MaxScore    *int                `json:"max_score,omitempty"`
	Percentage  *int                `json:"percentage,omitempty"`
}

type AttemptSummaryDTO struct {
	ID          uint                `json:"id"`
	ExamID      uint                `json:"exam_id"`
	UserID      uint                `json:"user_id"`
	ExamTitle   string              `json:"exam_title,omitempty"`
	Status      model.AttemptStatus `json:"status"`
	StartedAt   time.Time           `json:"started_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Score       *int                `json:"score,omitempty"`
	MaxScore    *int                `json:"max_score,omitempty"`
	Percentage  *int                `json:"percentage,omitempty"`
}

type AnswerResultDTO struct {
	QuestionID uint               `json:"question_id"`
	UserAnswer json.RawMessage    `json:"user_answer,omitempty"`
	IsCorrect  *bool              `json:"is_correct,omitempty"`
	Score      *int               `json:"score,omitempty"`
	Feedback   *string            `json:"feedback,omitempty"`
	AIAnalysis *grading.AIResult  `json:"ai_analysis,omitempty"`
}

// AttemptResultDTO is the full post-submission view: final attempt fields
// plus the per-question grades.
type AttemptResultDTO struct {
	AttemptDTO
	ExamTitle string            `json:"exam_title,omitempty"`
	Answers   []AnswerResultDTO `json:"answers,omitempty"`
}
