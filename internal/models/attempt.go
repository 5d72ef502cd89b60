package models

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// QuizAttempt is the durable record of one scored submission. It is created
// exactly once per submission and never mutated afterwards.
type QuizAttempt struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	QuizID    uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	CompanyID uuid.UUID `json:"company_id" gorm:"type:uuid;not null;index"`

	Score          int `json:"score" gorm:"not null"`
	TotalQuestions int `json:"total_questions" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`

	// Relations
	User    *User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Quiz    *Quiz    `json:"quiz,omitempty" gorm:"foreignKey:QuizID"`
	Company *Company `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// Percentage returns the attempt score as a percentage rounded to 2 decimals.
func (a *QuizAttempt) Percentage() float64 {
	if a.TotalQuestions == 0 {
		return 0
	}
	return Round2(float64(a.Score) / float64(a.TotalQuestions) * 100)
}

// Round2 rounds to 2 decimal places, the precision used for every
// user-facing percentage.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
