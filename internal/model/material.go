package model

import (
	"time"

	"gorm.io/gorm"
)

// Material is an uploaded study document. The blob lives in object storage
// under ObjectKey; ContentText holds the extracted plain text supplied by the
// uploader and feeds AI question generation.
type Material struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	ExamID      *uint          `json:"exam_id,omitempty" gorm:"index"`
	Title       string         `json:"title" gorm:"not null"`
	ObjectKey   string         `json:"object_key" gorm:"not null"`
	FileType    string         `json:"file_type" gorm:"not null"`
	ContentText string         `json:"content_text,omitempty" gorm:"type:text"`
	UploadedBy  uint           `json:"uploaded_by" gorm:"not null;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
