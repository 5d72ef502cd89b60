package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
)

// QuizRepository persists quizzes with their question and answer graphs.
type QuizRepository interface {
	// Create persists a quiz together with its nested questions and answers
	// in a single transaction.
	Create(ctx context.Context, quiz *models.Quiz) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)

	// GetByIDWithQuestions loads the full quiz graph in one query set:
	// questions ordered by their position, answers ordered within each
	// question. The result is the immutable snapshot scoring runs against.
	GetByIDWithQuestions(ctx context.Context, id uuid.UUID) (*models.Quiz, error)

	GetByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Quiz, error)
	CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error)

	// IncrementFrequency bumps the participation counter with an atomic
	// in-database increment so concurrent submissions never lose updates.
	IncrementFrequency(ctx context.Context, id uuid.UUID) error

	Delete(ctx context.Context, id uuid.UUID) error
}
