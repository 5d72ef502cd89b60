package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
)

// AttemptRepository persists and reads quiz attempt history. Attempts are
// append-only: there is no update or delete path.
type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.QuizAttempt) error

	// History reads for the analytics aggregator. Results are ordered by
	// creation time ascending unless stated otherwise.
	GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.QuizAttempt, error)
	GetByUserAndCompany(ctx context.Context, userID, companyID uuid.UUID) ([]*models.QuizAttempt, error)
	GetByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.QuizAttempt, error)
	GetByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.QuizAttempt, error)

	// GetRecentByUser returns the newest attempts first, with quiz and
	// company preloaded for display.
	GetRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error)

	// Aggregates computed in SQL. CompanyID narrows the scope when non-nil.
	GetUserAggregate(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (*AttemptAggregate, error)
	GetCompanyAggregate(ctx context.Context, companyID uuid.UUID) (*AttemptAggregate, error)

	// CountDistinctUsersByQuiz counts users who attempted the quiz at least
	// once; repeat attempts by one user count once.
	CountDistinctUsersByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error)
}
