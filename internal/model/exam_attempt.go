package model

import (
	"time"

	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
)

// ExamAttempt is one student's pass at one exam. Status is the explicit state
// machine field; at most one attempt per (exam_id, user_id) may be
// in_progress, enforced by a partial unique index on top of the service-level
// check. Score fields stay nil until the attempt is graded.
type ExamAttempt struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	ExamID      uint           `json:"exam_id" gorm:"not null;index"`
	Exam        Exam           `json:"exam,omitempty" gorm:"foreignKey:ExamID"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	Status      AttemptStatus  `json:"status" gorm:"not null;default:'in_progress'"`
	StartedAt   time.Time      `json:"started_at" gorm:"not null"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	TimeSpent   *int           `json:"time_spent,omitempty"` // seconds
	Score       *int           `json:"score,omitempty"`
	MaxScore    *int           `json:"max_score,omitempty"`
	Percentage  *int           `json:"percentage,omitempty"`
	Answers     []ExamAnswer   `json:"answers,omitempty" gorm:"foreignKey:AttemptID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *ExamAttempt) IsCompleted() bool {
	return a.Status == AttemptCompleted
}
