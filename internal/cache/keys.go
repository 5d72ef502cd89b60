package cache

import (
	"fmt"

	"github.com/google/uuid"
)

const responseKeyPrefix = "quiz_response"

// ResponseKey builds the cache key for one answered question:
// quiz_response:{user_id}:{quiz_id}:{question_id}
func ResponseKey(userID, quizID, questionID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s:%s", responseKeyPrefix, userID, quizID, questionID)
}

// ResponsePattern matches every cached response a user has for a quiz.
func ResponsePattern(userID, quizID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s:*", responseKeyPrefix, userID, quizID)
}
