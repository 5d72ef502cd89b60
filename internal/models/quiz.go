package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Structural invariants for quizzes and questions.
	MinQuestionsPerQuiz   = 2
	MinAnswersPerQuestion = 2
	MaxAnswersPerQuestion = 4
)

type Quiz struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title       string    `json:"title" gorm:"not null;size:255"`
	Description *string   `json:"description" gorm:"type:text"`
	CompanyID   uuid.UUID `json:"company_id" gorm:"type:uuid;not null;index"`

	// Frequency counts completed submissions. It is only ever changed with an
	// atomic in-database increment, never a read-modify-write from Go.
	Frequency int `json:"frequency" gorm:"default:0;not null"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Company   *Company   `json:"company,omitempty" gorm:"foreignKey:CompanyID"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

type Question struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	QuizID uuid.UUID `json:"quiz_id" gorm:"type:uuid;not null;index"`
	Title  string    `json:"title" gorm:"type:text;not null"`
	Order  int       `json:"order" gorm:"column:order;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:QuestionID"`
}

func (Question) TableName() string {
	return "questions"
}

// CorrectAnswerIDs returns the set of answer ids flagged correct.
func (q *Question) CorrectAnswerIDs() map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{})
	for _, a := range q.Answers {
		if a.IsCorrect {
			set[a.ID] = struct{}{}
		}
	}
	return set
}

// HasAnswer reports whether the given answer id belongs to this question.
func (q *Question) HasAnswer(id uuid.UUID) bool {
	for _, a := range q.Answers {
		if a.ID == id {
			return true
		}
	}
	return false
}

type Answer struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	QuestionID uuid.UUID `json:"question_id" gorm:"type:uuid;not null;index"`
	Text       string    `json:"text" gorm:"type:text;not null"`
	IsCorrect  bool      `json:"is_correct" gorm:"default:false;not null"`
	Order      int       `json:"order" gorm:"column:order;not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Answer) TableName() string {
	return "answers"
}
