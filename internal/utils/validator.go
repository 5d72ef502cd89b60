package utils

import (
	"github.com/go-playground/validator/v10"
	apperrors "github.com/quizdeck/quiz-service/internal/errors"
	"github.com/quizdeck/quiz-service/internal/models"
)

// Validator wraps go-playground/validator and converts its output into the
// shared ValidationErrors type.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	validate := validator.New()
	RegisterCustomValidators(validate)
	return &Validator{validate: validate}
}

// Validate checks the struct tags on the given value and returns
// ValidationErrors on failure.
func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// Custom validation functions

func ValidateNotificationType(fl validator.FieldLevel) bool {
	validTypes := []models.NotificationType{
		models.NotificationQuizCreated,
		models.NotificationQuizReminder,
		models.NotificationMemberJoined,
		models.NotificationSystemMessage,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func ValidateExportFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "json" || value == "csv"
}

// ValidateHasCorrectAnswer ensures a slice of answer payloads flags at least
// one answer as correct. Registered as a struct-field rule on question inputs.
func ValidateHasCorrectAnswer(fl validator.FieldLevel) bool {
	answers, ok := fl.Field().Interface().([]AnswerInput)
	if !ok {
		return false
	}
	for _, a := range answers {
		if a.IsCorrect {
			return true
		}
	}
	return false
}

// AnswerInput is the minimal answer payload shape shared by quiz creation
// and Excel import.
type AnswerInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	Order     int    `json:"order"`
}

// RegisterCustomValidators registers all custom validators
func RegisterCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("notification_type", ValidateNotificationType)
	validate.RegisterValidation("export_format", ValidateExportFormat)
	validate.RegisterValidation("has_correct_answer", ValidateHasCorrectAnswer)
}
