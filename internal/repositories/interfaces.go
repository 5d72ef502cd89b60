package repositories

import (
	"time"

	"github.com/google/uuid"
)

// Repository bundles all entity repositories behind one dependency for the
// service layer.
type Repository interface {
	User() UserRepository
	Company() CompanyRepository
	Quiz() QuizRepository
	Attempt() AttemptRepository
	Notification() NotificationRepository
}

// ===== SHARED FILTER STRUCTS =====

type NotificationFilters struct {
	UnreadOnly bool `json:"unread_only"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// AttemptAggregate carries the raw sums needed for weighted averages:
// sum(score) / sum(total_questions), not a mean of per-attempt percentages.
type AttemptAggregate struct {
	TotalAttempts  int64      `json:"total_attempts"`
	TotalQuestions int64      `json:"total_questions"`
	TotalCorrect   int64      `json:"total_correct"`
	CompanyCount   int64      `json:"company_count"`
	QuizCount      int64      `json:"quiz_count"`
	UserCount      int64      `json:"user_count"`
	LastAttemptAt  *time.Time `json:"last_attempt_at"`
}

type MemberRef struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
}
