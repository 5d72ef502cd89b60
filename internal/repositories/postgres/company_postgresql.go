package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type CompanyPostgreSQL struct {
	db *gorm.DB
}

func NewCompanyPostgreSQL(db *gorm.DB) repositories.CompanyRepository {
	return &CompanyPostgreSQL{db: db}
}

func (c *CompanyPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := c.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *CompanyPostgreSQL) GetMembers(ctx context.Context, companyID uuid.UUID) ([]*models.CompanyMember, error) {
	var members []*models.CompanyMember
	if err := c.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Preload("User").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (c *CompanyPostgreSQL) GetMember(ctx context.Context, userID, companyID uuid.UUID) (*models.CompanyMember, error) {
	var member models.CompanyMember
	if err := c.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Preload("User").
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (c *CompanyPostgreSQL) CountMembers(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ?", companyID).
		Count(&count).Error
	return count, err
}

func (c *CompanyPostgreSQL) GetMemberUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := c.db.WithContext(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ?", companyID).
		Pluck("user_id", &ids).Error
	return ids, err
}

type UserPostgreSQL struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{db: db}
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	var users []*models.User
	if err := u.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
