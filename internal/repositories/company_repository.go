package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
)

// CompanyRepository reads companies and their membership rolls.
type CompanyRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)

	// GetMembers returns all membership rows with users preloaded.
	GetMembers(ctx context.Context, companyID uuid.UUID) ([]*models.CompanyMember, error)
	GetMember(ctx context.Context, userID, companyID uuid.UUID) (*models.CompanyMember, error)
	CountMembers(ctx context.Context, companyID uuid.UUID) (int64, error)

	// GetMemberUserIDs returns the user ids of every current member,
	// the recipient universe for company-scoped fan-out.
	GetMemberUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error)
}

// UserRepository reads user records.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error)
}
