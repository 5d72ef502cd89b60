package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of platform events
type EventType string

const (
	// Quiz events
	EventQuizPublished EventType = "quiz.published"

	// Attempt events
	EventAttemptCompleted EventType = "attempt.completed"
)

// Event is the envelope shared by every published event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// QuizPublishedEvent fires after a quiz and its question graph are durably
// created. The dispatcher consumes it to fan notifications out to members.
type QuizPublishedEvent struct {
	QuizID      uuid.UUID `json:"quiz_id"`
	QuizTitle   string    `json:"quiz_title"`
	CompanyID   uuid.UUID `json:"company_id"`
	CompanyName string    `json:"company_name"`
	CreatorID   uuid.UUID `json:"creator_id"`
}

// AttemptCompletedEvent mirrors a scored submission to downstream consumers.
type AttemptCompletedEvent struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	CompanyID      uuid.UUID `json:"company_id"`
	UserID         uuid.UUID `json:"user_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CompletedAt    time.Time `json:"completed_at"`
}

// NewQuizPublishedEvent wraps a QuizPublishedEvent in the standard envelope
func NewQuizPublishedEvent(quizID uuid.UUID, quizTitle string, companyID uuid.UUID, companyName string, creatorID uuid.UUID) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      EventQuizPublished,
		Timestamp: time.Now().UTC(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: QuizPublishedEvent{
			QuizID:      quizID,
			QuizTitle:   quizTitle,
			CompanyID:   companyID,
			CompanyName: companyName,
			CreatorID:   creatorID,
		},
	}
}

// NewAttemptCompletedEvent wraps an AttemptCompletedEvent in the standard envelope
func NewAttemptCompletedEvent(attemptID, quizID, companyID, userID uuid.UUID, score, totalQuestions int, completedAt time.Time) *Event {
	return &Event{
		ID:        GenerateEventID(),
		Type:      EventAttemptCompleted,
		Timestamp: time.Now().UTC(),
		Source:    "quiz-service",
		Version:   "1.0",
		Data: AttemptCompletedEvent{
			AttemptID:      attemptID,
			QuizID:         quizID,
			CompanyID:      companyID,
			UserID:         userID,
			Score:          score,
			TotalQuestions: totalQuestions,
			CompletedAt:    completedAt,
		},
	}
}

// GenerateEventID returns a unique id for an event envelope
func GenerateEventID() string {
	return uuid.NewString()
}
