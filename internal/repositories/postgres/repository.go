package postgres

import (
	"github.com/quizdeck/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	user         repositories.UserRepository
	company      repositories.CompanyRepository
	quiz         repositories.QuizRepository
	attempt      repositories.AttemptRepository
	notification repositories.NotificationRepository
}

// NewRepository wires all PostgreSQL-backed repositories over one gorm
// connection.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		user:         NewUserPostgreSQL(db),
		company:      NewCompanyPostgreSQL(db),
		quiz:         NewQuizPostgreSQL(db),
		attempt:      NewAttemptPostgreSQL(db),
		notification: NewNotificationPostgreSQL(db),
	}
}

func (r *repository) User() repositories.UserRepository                 { return r.user }
func (r *repository) Company() repositories.CompanyRepository           { return r.company }
func (r *repository) Quiz() repositories.QuizRepository                 { return r.quiz }
func (r *repository) Attempt() repositories.AttemptRepository           { return r.attempt }
func (r *repository) Notification() repositories.NotificationRepository { return r.notification }
