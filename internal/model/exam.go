package model

import (
	"time"

	"gorm.io/gorm"
)

type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamPublished ExamStatus = "published"
	ExamArchived  ExamStatus = "archived"
)

type Exam struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	Title          string         `json:"title" gorm:"not null"`
	Description    string         `json:"description,omitempty"`
	Status         ExamStatus     `json:"status" gorm:"not null;default:'draft';index"`
	IsPublic       bool           `json:"is_public" gorm:"not null;default:false"`
	RandomizeOrder bool           `json:"randomize_order" gorm:"not null;default:false"`
	TimeLimit      *int           `json:"time_limit,omitempty"` // minutes, nil means untimed
	CreatedBy      uint           `json:"created_by" gorm:"not null;index"`
	Questions      []Question     `json:"questions,omitempty" gorm:"foreignKey:ExamID"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}
