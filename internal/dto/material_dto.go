package dto

import "time"

type MaterialResponseDTO struct {
	ID        uint      `json:"id"`
	ExamID    *uint     `json:"exam_id,omitempty"`
	Title     string    `json:"title"`
	FileType  string    `json:"file_type"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
