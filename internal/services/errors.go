package services

import (
	"errors"

	apperrors "github.com/quizdeck/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")

	// Quiz specific errors
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuizAccessDenied = errors.New("access denied to quiz")
	ErrTooFewQuestions  = errors.New("quiz must contain at least two questions")
	ErrBadAnswerCount   = errors.New("question must contain between two and four answers")
	ErrNoCorrectAnswer  = errors.New("question must contain at least one correct answer")

	// Submission specific errors
	ErrIncompleteSubmission = errors.New("submission must answer every question")
	ErrUnknownQuestion      = errors.New("submission references a question outside the quiz")
	ErrUnknownAnswer        = errors.New("submission references an answer outside the question")

	// Company/membership errors
	ErrCompanyNotFound = errors.New("company not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserNotMember   = errors.New("user is not a member of this company")

	// Notification errors
	ErrNotificationNotFound     = errors.New("notification not found")
	ErrNotificationAccessDenied = errors.New("access denied to notification")

	// Export/import errors
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrEmptyImportFile   = errors.New("import file contains no quiz rows")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrQuizNotFound) ||
		errors.Is(err, ErrCompanyNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrNotificationNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrQuizAccessDenied) ||
		errors.Is(err, ErrUserNotMember) ||
		errors.Is(err, ErrNotificationAccessDenied)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrIncompleteSubmission) ||
		errors.Is(err, ErrUnknownQuestion) ||
		errors.Is(err, ErrUnknownAnswer) ||
		errors.Is(err, ErrTooFewQuestions) ||
		errors.Is(err, ErrBadAnswerCount) ||
		errors.Is(err, ErrNoCorrectAnswer) ||
		errors.Is(err, ErrUnsupportedFormat) ||
		errors.Is(err, ErrEmptyImportFile) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}
