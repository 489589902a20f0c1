package repository

import (
	"github.com/nfcelis/examspot/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository interface {
	// Upsert records an autosaved answer keyed by (attempt_id, question_id);
	// a later save for the same question overwrites the earlier one and only
	// ever touches the user_answer column.
	Upsert(answer *model.ExamAnswer) error
	// UpdateGrade writes the grading outcome of one answer.
	UpdateGrade(answer *model.ExamAnswer) error
	FindByAttemptID(attemptID uint) ([]model.ExamAnswer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Upsert(answer *model.ExamAnswer) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_answer", "updated_at"}),
	}).Create(answer).Error
}

func (r *answerRepository) UpdateGrade(answer *model.ExamAnswer) error {
	return r.db.Model(&model.ExamAnswer{}).
		Where("id = ?", answer.ID).
		Updates(map[string]interface{}{
			"is_correct":  answer.IsCorrect,
			"score":       answer.Score,
			"feedback":    answer.Feedback,
			"ai_analysis": answer.AIAnalysis,
		}).Error
}

func (r *answerRepository) FindByAttemptID(attemptID uint) ([]model.ExamAnswer, error) {
	var answers []model.ExamAnswer
	err := r.db.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}
