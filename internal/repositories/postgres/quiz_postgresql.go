package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, quiz *models.Quiz) error {
	// FullSaveAssociations is not needed: gorm cascades the nested
	// Questions/Answers inserts inside one transaction on Create.
	return q.db.WithContext(ctx).Create(quiz).Error
}

func (q *QuizPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order ASC")
		}).
		Preload("Questions.Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("answers.order ASC")
		}).
		First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) GetByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Quiz, error) {
	var quizzes []*models.Quiz
	if err := q.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at ASC").
		Find(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (q *QuizPostgreSQL) CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}

func (q *QuizPostgreSQL) IncrementFrequency(ctx context.Context, id uuid.UUID) error {
	// Single UPDATE with an expression keeps the counter correct under
	// concurrent submissions to the same quiz.
	return q.db.WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		UpdateColumn("frequency", gorm.Expr("frequency + ?", 1)).Error
}

func (q *QuizPostgreSQL) Delete(ctx context.Context, id uuid.UUID) error {
	return q.db.WithContext(ctx).Delete(&models.Quiz{}, "id = ?", id).Error
}
