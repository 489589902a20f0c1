package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionOpenEnded      QuestionType = "open_ended"
	QuestionFillBlank      QuestionType = "fill_blank"
	QuestionMatching       QuestionType = "matching"
)

// MatchingTerm is one term/definition pair of a matching question, stored
// inside the Terms jsonb column.
type MatchingTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Question is immutable once an attempt references it. CorrectAnswer is a
// jsonb payload whose shape depends on Type: a single option index or an
// index array for multiple_choice, a string array for fill_blank, the model
// answer text for open_ended; matching keys live in Terms instead.
type Question struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	ExamID             uint           `json:"exam_id" gorm:"not null;index"`
	Type               QuestionType   `json:"type" gorm:"not null"`
	QuestionText       string         `json:"question_text" gorm:"type:text;not null"`
	Options            datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`
	CorrectAnswer      datatypes.JSON `json:"correct_answer,omitempty" gorm:"type:jsonb"`
	Terms              datatypes.JSON `json:"terms,omitempty" gorm:"type:jsonb"`
	Points             int            `json:"points" gorm:"not null"`
	AllowPartialCredit bool           `json:"allow_partial_credit" gorm:"not null;default:false"`
	Explanation        string         `json:"explanation,omitempty" gorm:"type:text"`
	OrderIndex         int            `json:"order_index" gorm:"not null;default:0"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}
