package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ExamAnswer is one student response to one question within one attempt,
// unique per (attempt_id, question_id); autosave upserts on that key.
// IsCorrect, Score, Feedback and AIAnalysis stay nil until grading writes
// them during submission; autosave only ever touches UserAnswer.
type ExamAnswer struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	AttemptID  uint           `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	Question   Question       `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	UserAnswer datatypes.JSON `json:"user_answer" gorm:"type:jsonb"`
	IsCorrect  *bool          `json:"is_correct,omitempty"`
	Score      *int           `json:"score,omitempty"`
	Feedback   *string        `json:"feedback,omitempty" gorm:"type:text"`
	AIAnalysis datatypes.JSON `json:"ai_analysis,omitempty" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}
