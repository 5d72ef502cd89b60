package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	db *gorm.DB
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{db: db}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return a.db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.QuizAttempt, error) {
	return a.find(ctx, "user_id = ?", userID)
}

func (a *AttemptPostgreSQL) GetByUserAndCompany(ctx context.Context, userID, companyID uuid.UUID) ([]*models.QuizAttempt, error) {
	return a.find(ctx, "user_id = ? AND company_id = ?", userID, companyID)
}

func (a *AttemptPostgreSQL) GetByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.QuizAttempt, error) {
	return a.find(ctx, "company_id = ?", companyID)
}

func (a *AttemptPostgreSQL) GetByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.QuizAttempt, error) {
	return a.find(ctx, "quiz_id = ?", quizID)
}

func (a *AttemptPostgreSQL) find(ctx context.Context, query string, args ...interface{}) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where(query, args...).
		Order("created_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	if err := a.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Preload("Quiz").
		Preload("Company").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetUserAggregate(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (*repositories.AttemptAggregate, error) {
	var agg repositories.AttemptAggregate

	query := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("user_id = ?", userID)
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}

	err := query.Select(
		"COUNT(*) AS total_attempts",
		"COALESCE(SUM(total_questions), 0) AS total_questions",
		"COALESCE(SUM(score), 0) AS total_correct",
		"COUNT(DISTINCT company_id) AS company_count",
		"COUNT(DISTINCT quiz_id) AS quiz_count",
		"MAX(created_at) AS last_attempt_at",
	).Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (a *AttemptPostgreSQL) GetCompanyAggregate(ctx context.Context, companyID uuid.UUID) (*repositories.AttemptAggregate, error) {
	var agg repositories.AttemptAggregate

	err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("company_id = ?", companyID).
		Select(
			"COUNT(*) AS total_attempts",
			"COALESCE(SUM(total_questions), 0) AS total_questions",
			"COALESCE(SUM(score), 0) AS total_correct",
			"COUNT(DISTINCT quiz_id) AS quiz_count",
			"COUNT(DISTINCT user_id) AS user_count",
			"MAX(created_at) AS last_attempt_at",
		).Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (a *AttemptPostgreSQL) CountDistinctUsersByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("quiz_id = ?", quizID).
		Distinct("user_id").
		Count(&count).Error
	return count, err
}
