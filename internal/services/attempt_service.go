package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/cache"
	"github.com/quizdeck/quiz-service/internal/events"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// AttemptService scores quiz submissions and reads attempt history.
type AttemptService interface {
	// Submit validates, scores and persists one complete submission. The
	// attempt row is the source of truth; cache writes, the frequency
	// increment and the completion event are best-effort side effects.
	Submit(ctx context.Context, companyID, quizID uuid.UUID, req *SubmitQuizRequest, userID uuid.UUID) (*AttemptResult, error)

	// GetCachedResponses reads the live per-question responses for a
	// (user, quiz) pair. Entries past their TTL are simply absent.
	GetCachedResponses(ctx context.Context, userID, quizID uuid.UUID) ([]*cache.QuizResponse, error)

	GetUserAttempts(ctx context.Context, userID uuid.UUID) ([]*models.QuizAttempt, error)
	GetRecentAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error)
}

type attemptService struct {
	repo      repositories.Repository
	responses cache.ResponseStore
	publisher EventSink
	logger    utils.Logger
	validator *utils.Validator
}

// EventSink is where completed-attempt and published-quiz events go. The
// in-process bus satisfies it; a Kafka mirror can wrap it.
type EventSink interface {
	Publish(event *events.Event) error
}

func NewAttemptService(repo repositories.Repository, responses cache.ResponseStore, publisher EventSink, logger utils.Logger, validator *utils.Validator) AttemptService {
	return &attemptService{
		repo:      repo,
		responses: responses,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// ===== REQUEST / RESPONSE TYPES =====

// Answers carries no required/min tag: a submission answering nothing has
// omitted every question, and grading classifies that as an incomplete
// submission rather than a malformed request.
type SubmitQuizRequest struct {
	Answers []QuestionAnswer `json:"answers" validate:"omitempty,dive"`
}

// QuestionAnswer is one answered question. AnswerIDs may be empty: an empty
// selection is a valid (incorrect) answer, not a missing one.
type QuestionAnswer struct {
	QuestionID uuid.UUID   `json:"question_id" validate:"required"`
	AnswerIDs  []uuid.UUID `json:"answer_ids"`
}

type AttemptResult struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	CompanyID      uuid.UUID `json:"company_id"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CorrectAnswers int       `json:"correct_answers"`
	Percentage     float64   `json:"percentage"`
	CompletedAt    time.Time `json:"completed_at"`
}

// ===== SUBMISSION =====

func (s *attemptService) Submit(ctx context.Context, companyID, quizID uuid.UUID, req *SubmitQuizRequest, userID uuid.UUID) (*AttemptResult, error) {
	s.logger.Info("Scoring quiz submission",
		"quiz_id", quizID,
		"user_id", userID,
		"company_id", companyID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.Company().GetMember(ctx, userID, companyID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	// Load the quiz graph once; this snapshot is what the whole submission
	// is scored against.
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

	graded, err := gradeSubmission(quiz, req)
	if err != nil {
		return nil, err
	}

	// Durable write first. If this fails the submission failed, full stop.
	attempt := &models.QuizAttempt{
		UserID:         userID,
		QuizID:         quiz.ID,
		CompanyID:      companyID,
		Score:          graded.score,
		TotalQuestions: len(quiz.Questions),
	}
	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	completedAt := attempt.CreatedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	// Everything below is best-effort: the attempt is already durable and
	// none of these failures may surface to the caller.
	s.cacheResponses(ctx, userID, companyID, quiz, graded, completedAt)

	if err := s.repo.Quiz().IncrementFrequency(ctx, quiz.ID); err != nil {
		s.logger.LogError(err, "Failed to increment quiz frequency", "quiz_id", quiz.ID)
	}

	if s.publisher != nil {
		event := events.NewAttemptCompletedEvent(
			attempt.ID, quiz.ID, companyID, userID,
			graded.score, len(quiz.Questions), completedAt)
		if err := s.publisher.Publish(event); err != nil {
			s.logger.LogError(err, "Failed to publish attempt completed event", "attempt_id", attempt.ID)
		}
	}

	return &AttemptResult{
		ID:             attempt.ID,
		UserID:         userID,
		QuizID:         quiz.ID,
		CompanyID:      companyID,
		Score:          graded.score,
		TotalQuestions: len(quiz.Questions),
		CorrectAnswers: graded.score,
		Percentage:     attempt.Percentage(),
		CompletedAt:    completedAt,
	}, nil
}

type gradedQuestion struct {
	questionID uuid.UUID
	answerIDs  []uuid.UUID
	correct    bool
}

type gradedSubmission struct {
	score     int
	questions []gradedQuestion
}

// gradeSubmission checks the submission against the quiz graph and scores
// it. Any structural problem rejects the whole submission before a single
// side effect happens.
func gradeSubmission(quiz *models.Quiz, req *SubmitQuizRequest) (*gradedSubmission, error) {
	submitted := make(map[uuid.UUID][]uuid.UUID, len(req.Answers))
	for _, qa := range req.Answers {
		submitted[qa.QuestionID] = qa.AnswerIDs
	}

	questionIDs := make(map[uuid.UUID]struct{}, len(quiz.Questions))
	for i := range quiz.Questions {
		questionIDs[quiz.Questions[i].ID] = struct{}{}
	}

	for qid := range submitted {
		if _, ok := questionIDs[qid]; !ok {
			return nil, ErrUnknownQuestion
		}
	}

	graded := &gradedSubmission{questions: make([]gradedQuestion, 0, len(quiz.Questions))}
	for i := range quiz.Questions {
		question := &quiz.Questions[i]

		answerIDs, answered := submitted[question.ID]
		if !answered {
			// Every question must be answered; an empty selection counts
			// as answered, omission does not.
			return nil, ErrIncompleteSubmission
		}
		for _, aid := range answerIDs {
			if !question.HasAnswer(aid) {
				return nil, ErrUnknownAnswer
			}
		}

		correct := matchesCorrectSet(question, answerIDs)
		if correct {
			graded.score++
		}
		graded.questions = append(graded.questions, gradedQuestion{
			questionID: question.ID,
			answerIDs:  answerIDs,
			correct:    correct,
		})
	}

	return graded, nil
}

// matchesCorrectSet implements exact-set scoring: the selection must equal
// the correct set exactly. Supersets, subsets and partial overlaps are all
// incorrect, with no partial credit.
func matchesCorrectSet(question *models.Question, answerIDs []uuid.UUID) bool {
	correct := question.CorrectAnswerIDs()
	if len(answerIDs) != len(correct) {
		return false
	}
	seen := make(map[uuid.UUID]struct{}, len(answerIDs))
	for _, aid := range answerIDs {
		if _, dup := seen[aid]; dup {
			return false
		}
		seen[aid] = struct{}{}
		if _, ok := correct[aid]; !ok {
			return false
		}
	}
	return true
}

// cacheResponses writes one independent cache entry per answered question.
// A failed write is logged and skipped; the remaining entries still go in.
func (s *attemptService) cacheResponses(ctx context.Context, userID, companyID uuid.UUID, quiz *models.Quiz, graded *gradedSubmission, answeredAt time.Time) {
	if s.responses == nil {
		return
	}
	for _, gq := range graded.questions {
		response := &cache.QuizResponse{
			UserID:     userID,
			CompanyID:  companyID,
			QuizID:     quiz.ID,
			QuestionID: gq.questionID,
			AnswerIDs:  gq.answerIDs,
			IsCorrect:  gq.correct,
			AnsweredAt: answeredAt,
		}
		if err := s.responses.StoreResponse(ctx, response); err != nil {
			s.logger.LogError(err, "Failed to cache quiz response",
				"quiz_id", quiz.ID,
				"question_id", gq.questionID)
		}
	}
}

// ===== HISTORY READS =====

func (s *attemptService) GetCachedResponses(ctx context.Context, userID, quizID uuid.UUID) ([]*cache.QuizResponse, error) {
	return s.responses.GetQuizResponses(ctx, userID, quizID)
}

func (s *attemptService) GetUserAttempts(ctx context.Context, userID uuid.UUID) ([]*models.QuizAttempt, error) {
	return s.repo.Attempt().GetByUser(ctx, userID)
}

func (s *attemptService) GetRecentAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.repo.Attempt().GetRecentByUser(ctx, userID, limit)
}
