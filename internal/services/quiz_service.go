package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/events"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// QuizService creates and reads quizzes.
type QuizService interface {
	// Create persists a quiz with its full question graph and publishes a
	// quiz published event once the graph is durable. Event publication is
	// best-effort; a bus failure never rolls the quiz back.
	Create(ctx context.Context, companyID uuid.UUID, req *CreateQuizRequest, creatorID uuid.UUID) (*models.Quiz, error)

	GetWithQuestions(ctx context.Context, companyID, quizID uuid.UUID) (*models.Quiz, error)
	ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Quiz, error)
	Delete(ctx context.Context, companyID, quizID uuid.UUID) error
}

type quizService struct {
	repo      repositories.Repository
	publisher EventSink
	logger    utils.Logger
	validator *utils.Validator
}

func NewQuizService(repo repositories.Repository, publisher EventSink, logger utils.Logger, validator *utils.Validator) QuizService {
	return &quizService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== REQUEST TYPES =====

type CreateQuizRequest struct {
	Title       string          `json:"title" validate:"required,max=255"`
	Description *string         `json:"description"`
	Questions   []QuestionInput `json:"questions" validate:"required,min=2,dive"`
}

type QuestionInput struct {
	Title   string              `json:"title" validate:"required"`
	Order   int                 `json:"order"`
	Answers []utils.AnswerInput `json:"answers" validate:"required,min=2,max=4,has_correct_answer,dive"`
}

// ===== OPERATIONS =====

func (s *quizService) Create(ctx context.Context, companyID uuid.UUID, req *CreateQuizRequest, creatorID uuid.UUID) (*models.Quiz, error) {
	s.logger.Info("Creating quiz", "company_id", companyID, "creator_id", creatorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateQuizStructure(req); err != nil {
		return nil, err
	}

	company, err := s.repo.Company().GetByID(ctx, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	if _, err := s.repo.Company().GetMember(ctx, creatorID, companyID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	quiz := buildQuiz(companyID, req)
	if err := s.repo.Quiz().Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created",
		"quiz_id", quiz.ID,
		"company_id", companyID,
		"questions", len(quiz.Questions))

	if s.publisher != nil {
		event := events.NewQuizPublishedEvent(quiz.ID, quiz.Title, companyID, company.Name, creatorID)
		if err := s.publisher.Publish(event); err != nil {
			s.logger.LogError(err, "Failed to publish quiz published event", "quiz_id", quiz.ID)
		}
	}

	return quiz, nil
}

// validateQuizStructure enforces the structural invariants beyond what
// struct tags express.
func validateQuizStructure(req *CreateQuizRequest) error {
	if len(req.Questions) < models.MinQuestionsPerQuiz {
		return ErrTooFewQuestions
	}
	for _, q := range req.Questions {
		if len(q.Answers) < models.MinAnswersPerQuestion || len(q.Answers) > models.MaxAnswersPerQuestion {
			return ErrBadAnswerCount
		}
		hasCorrect := false
		for _, a := range q.Answers {
			if a.IsCorrect {
				hasCorrect = true
				break
			}
		}
		if !hasCorrect {
			return ErrNoCorrectAnswer
		}
	}
	return nil
}

func buildQuiz(companyID uuid.UUID, req *CreateQuizRequest) *models.Quiz {
	quiz := &models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		CompanyID:   companyID,
		Questions:   make([]models.Question, 0, len(req.Questions)),
	}
	for i, q := range req.Questions {
		order := q.Order
		if order == 0 {
			order = i + 1
		}
		question := models.Question{
			Title:   q.Title,
			Order:   order,
			Answers: make([]models.Answer, 0, len(q.Answers)),
		}
		for j, a := range q.Answers {
			answerOrder := a.Order
			if answerOrder == 0 {
				answerOrder = j + 1
			}
			question.Answers = append(question.Answers, models.Answer{
				Text:      a.Text,
				IsCorrect: a.IsCorrect,
				Order:     answerOrder,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	return quiz
}

func (s *quizService) GetWithQuestions(ctx context.Context, companyID, quizID uuid.UUID) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithQuestions(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CompanyID != companyID {
		return nil, ErrQuizNotFound
	}
	return quiz, nil
}

func (s *quizService) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Quiz, error) {
	return s.repo.Quiz().GetByCompany(ctx, companyID)
}

func (s *quizService) Delete(ctx context.Context, companyID, quizID uuid.UUID) error {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuizNotFound
		}
		return fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CompanyID != companyID {
		return ErrQuizNotFound
	}
	return s.repo.Quiz().Delete(ctx, quizID)
}
