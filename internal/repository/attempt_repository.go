package repository

import (
	"time"

	"github.com/nfcelis/examspot/internal/model"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(attempt *model.ExamAttempt) error
	FindByID(id uint) (*model.ExamAttempt, error)
	FindByIDWithAnswers(id uint) (*model.ExamAttempt, error)
	FindActive(examID, userID uint) (*model.ExamAttempt, error)
	FindAllByUser(userID uint) ([]model.ExamAttempt, error)
	FindAllByExam(examID uint) ([]model.ExamAttempt, error)
	FindExpired(now time.Time) ([]model.ExamAttempt, error)
	// Complete performs the terminal transition as a compare-and-swap: the
	// update only applies while the attempt is still in_progress, and the
	// returned row count is zero when another submit got there first.
	Complete(attempt *model.ExamAttempt) (int64, error)
}

type attemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Create(attempt *model.ExamAttempt) error {
	return r.db.Create(attempt).Error
}

func (r *attemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	if err := r.db.First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindByIDWithAnswers(id uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.db.
		Preload("Exam").
		Preload("Answers.Question").
		First(&attempt, id).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindActive(examID, userID uint) (*model.ExamAttempt, error) {
	var attempt model.ExamAttempt
	err := r.db.
		Where("exam_id = ? AND user_id = ? AND status = ?", examID, userID, model.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *attemptRepository) FindAllByUser(userID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.
		Preload("Exam").
		Where("user_id = ?", userID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindAllByExam(examID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.
		Where("exam_id = ?", examID).
		Order("started_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) FindExpired(now time.Time) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.db.
		Joins("JOIN exams ON exams.id = exam_attempts.exam_id").
		Where("exam_attempts.status = ?", model.AttemptInProgress).
		Where("exams.time_limit IS NOT NULL").
		Where("exam_attempts.started_at + make_interval(mins => exams.time_limit) < ?", now).
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepository) Complete(attempt *model.ExamAttempt) (int64, error) {
	result := r.db.Model(&model.ExamAttempt{}).
		Where("id = ? AND status = ?", attempt.ID, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       model.AttemptCompleted,
			"completed_at": attempt.CompletedAt,
			"time_spent":   attempt.TimeSpent,
			"score":        attempt.Score,
			"max_score":    attempt.MaxScore,
			"percentage":   attempt.Percentage,
		})
	return result.RowsAffected, result.Error
}
