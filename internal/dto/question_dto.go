package dto

import (
	"encoding/json"

	"github.com/nfcelis/examspot/internal/model"
)

type QuestionCreateDTO struct {
	Type               string               `json:"type" binding:"required,oneof=multiple_choice open_ended fill_blank matching"`
	QuestionText       string               `json:"question_text" binding:"required"`
	Options            []string             `json:"options,omitempty"`
	CorrectAnswer      json.RawMessage      `json:"correct_answer,omitempty"`
	Terms              []model.MatchingTerm `json:"terms,omitempty"`
	Points             int                  `json:"points" binding:"required,gt=0"`
	AllowPartialCredit bool                 `json:"allow_partial_credit"`
	Explanation        string               `json:"explanation,omitempty"`
	OrderIndex         int                  `json:"order_index"`
}

// QuestionResponseDTO is the author-facing view, answer key included.
type QuestionResponseDTO struct {
	ID                 uint                 `json:"id"`
	ExamID             uint                 `json:"exam_id"`
	Type               model.QuestionType   `json:"type"`
	QuestionText       string               `json:"question_text"`
	Options            []string             `json:"options,omitempty"`
	CorrectAnswer      json.RawMessage      `json:"correct_answer,omitempty"`
	Terms              []model.MatchingTerm `json:"terms,omitempty"`
	Points             int                  `json:"points"`
	AllowPartialCredit bool                 `json:"allow_partial_credit"`
	Explanation        string               `json:"explanation,omitempty"`
	OrderIndex         int                  `json:"order_index"`
}

// TakerQuestionDTO is the student-facing view of a question during an
// attempt: no answer key, no explanation. Matching terms are split so the
// definitions can be shuffled client-side.
type TakerQuestionDTO struct {
	ID           uint               `json:"id"`
	Type         model.QuestionType `json:"type"`
	QuestionText string             `json:"question_text"`
	Options      []string           `json:"options,omitempty"`
	Terms        []string           `json:"terms,omitempty"`
	Definitions  []string           `json:"definitions,omitempty"`
	Points       int                `json:"points"`
	OrderIndex   int                `json:"order_index"`
}

type GenerateQuestionsDTO struct {
	MaterialID    uint     `json:"material_id" binding:"required"`
	QuestionCount int      `json:"question_count" binding:"required,min=1,max=20"`
	QuestionTypes []string `json:"question_types" binding:"required,min=1,dive,oneof=multiple_choice open_ended fill_blank matching"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
}

// GeneratedQuestionDTO is one AI-authored question proposal, returned for
// teacher review rather than inserted directly.
type GeneratedQuestionDTO struct {
	Type          string               `json:"type"`
	QuestionText  string               `json:"question_text"`
	Options       []string             `json:"options,omitempty"`
	CorrectAnswer json.RawMessage      `json:"correct_answer,omitempty"`
	Terms         []model.MatchingTerm `json:"terms,omitempty"`
	Points        int                  `json:"points"`
	Explanation   string               `json:"explanation,omitempty"`
}
