package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Company struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description *string   `json:"description" gorm:"type:text"`
	OwnerID     uuid.UUID `json:"owner_id" gorm:"type:uuid;not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Owner   *User           `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Members []CompanyMember `json:"members,omitempty" gorm:"foreignKey:CompanyID"`
}

func (Company) TableName() string {
	return "companies"
}

// CompanyMember links a user to a company. One row per (user, company) pair.
type CompanyMember struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;uniqueIndex:idx_company_member"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null;uniqueIndex:idx_company_member"`
	IsAdmin   bool      `json:"is_admin" gorm:"default:false;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (CompanyMember) TableName() string {
	return "company_members"
}
