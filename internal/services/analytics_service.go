package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// AnalyticsService derives statistics from durable attempt history. It never
// reads the response cache: expired cache entries must not change any number
// reported here.
type AnalyticsService interface {
	GetUserOverallAnalytics(ctx context.Context, userID uuid.UUID) (*UserOverallAnalytics, error)
	GetUserRecentAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]*RecentAttempt, error)
	GetUserQuizAnalytics(ctx context.Context, userID, quizID uuid.UUID) (*UserQuizAnalytics, error)

	GetCompanyOverviewAnalytics(ctx context.Context, companyID uuid.UUID) (*CompanyOverviewAnalytics, error)
	GetCompanyMembersAnalytics(ctx context.Context, companyID uuid.UUID) ([]*MemberAnalytics, error)
	GetCompanyQuizzesAnalytics(ctx context.Context, companyID uuid.UUID) ([]*QuizAnalytics, error)
	GetUserInCompanyAnalytics(ctx context.Context, companyID, userID uuid.UUID) (*UserOverallAnalytics, error)
}

type analyticsService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewAnalyticsService(repo repositories.Repository, logger utils.Logger) AnalyticsService {
	return &analyticsService{repo: repo, logger: logger}
}

// ===== RESPONSE TYPES =====

// UserOverallAnalytics aggregates across attempts with a weighted average:
// total correct over total questions, so a 10-question quiz moves the number
// more than a 2-question one. This is deliberately not the mean of
// per-attempt percentages.
type UserOverallAnalytics struct {
	UserID          uuid.UUID  `json:"user_id"`
	TotalAttempts   int64      `json:"total_attempts"`
	TotalQuestions  int64      `json:"total_questions"`
	TotalCorrect    int64      `json:"total_correct"`
	AverageScore    float64    `json:"average_score"`
	QuizzesTaken    int64      `json:"quizzes_taken"`
	CompaniesActive int64      `json:"companies_active"`
	LastAttemptAt   *time.Time `json:"last_attempt_at"`
}

type RecentAttempt struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	QuizID         uuid.UUID `json:"quiz_id"`
	QuizTitle      string    `json:"quiz_title"`
	CompanyID      uuid.UUID `json:"company_id"`
	CompanyName    string    `json:"company_name"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	CompletedAt    time.Time `json:"completed_at"`
}

// UserQuizAnalytics reports one user's history on one quiz. AverageScore
// here is the mean of per-attempt percentages, each attempt weighing the
// same regardless of question count.
type UserQuizAnalytics struct {
	UserID       uuid.UUID     `json:"user_id"`
	QuizID       uuid.UUID     `json:"quiz_id"`
	Attempts     int           `json:"attempts"`
	AverageScore float64       `json:"average_score"`
	BestScore    float64       `json:"best_score"`
	LatestScore  float64       `json:"latest_score"`
	WeeklyTrend  []WeeklyPoint `json:"weekly_trend"`
}

// WeeklyPoint is one ISO-week bucket of a performance trend.
type WeeklyPoint struct {
	Week         string  `json:"week"`
	Attempts     int     `json:"attempts"`
	AverageScore float64 `json:"average_score"`
}

type CompanyOverviewAnalytics struct {
	CompanyID     uuid.UUID  `json:"company_id"`
	MemberCount   int64      `json:"member_count"`
	QuizCount     int64      `json:"quiz_count"`
	TotalAttempts int64      `json:"total_attempts"`
	AverageScore  float64    `json:"average_score"`
	ActiveMembers int64      `json:"active_members"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
}

type MemberAnalytics struct {
	UserID        uuid.UUID  `json:"user_id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	TotalAttempts int64      `json:"total_attempts"`
	AverageScore  float64    `json:"average_score"`
	LastAttemptAt *time.Time `json:"last_attempt_at"`
}

// QuizAnalytics reports how one quiz performs across the company.
// AverageScore is the mean of attempt percentages; CompletionRate is the
// share of members who attempted the quiz at least once.
type QuizAnalytics struct {
	QuizID         uuid.UUID     `json:"quiz_id"`
	Title          string        `json:"title"`
	Frequency      int           `json:"frequency"`
	TotalAttempts  int           `json:"total_attempts"`
	AverageScore   float64       `json:"average_score"`
	CompletionRate float64       `json:"completion_rate"`
	WeeklyTrend    []WeeklyPoint `json:"weekly_trend"`
}

// ===== USER ANALYTICS =====

func (s *analyticsService) GetUserOverallAnalytics(ctx context.Context, userID uuid.UUID) (*UserOverallAnalytics, error) {
	agg, err := s.repo.Attempt().GetUserAggregate(ctx, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user attempts: %w", err)
	}
	return userAnalyticsFromAggregate(userID, agg), nil
}

func (s *analyticsService) GetUserInCompanyAnalytics(ctx context.Context, companyID, userID uuid.UUID) (*UserOverallAnalytics, error) {
	if _, err := s.repo.Company().GetMember(ctx, userID, companyID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotMember
		}
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	agg, err := s.repo.Attempt().GetUserAggregate(ctx, userID, &companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user attempts: %w", err)
	}
	return userAnalyticsFromAggregate(userID, agg), nil
}

func userAnalyticsFromAggregate(userID uuid.UUID, agg *repositories.AttemptAggregate) *UserOverallAnalytics {
	result := &UserOverallAnalytics{
		UserID:          userID,
		TotalAttempts:   agg.TotalAttempts,
		TotalQuestions:  agg.TotalQuestions,
		TotalCorrect:    agg.TotalCorrect,
		QuizzesTaken:    agg.QuizCount,
		CompaniesActive: agg.CompanyCount,
		LastAttemptAt:   agg.LastAttemptAt,
	}
	if agg.TotalQuestions > 0 {
		result.AverageScore = models.Round2(float64(agg.TotalCorrect) / float64(agg.TotalQuestions) * 100)
	}
	return result
}

func (s *analyticsService) GetUserRecentAttempts(ctx context.Context, userID uuid.UUID, limit int) ([]*RecentAttempt, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	attempts, err := s.repo.Attempt().GetRecentByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent attempts: %w", err)
	}

	recent := make([]*RecentAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		item := &RecentAttempt{
			AttemptID:      attempt.ID,
			QuizID:         attempt.QuizID,
			CompanyID:      attempt.CompanyID,
			Score:          attempt.Score,
			TotalQuestions: attempt.TotalQuestions,
			Percentage:     attempt.Percentage(),
			CompletedAt:    attempt.CreatedAt,
		}
		if attempt.Quiz != nil {
			item.QuizTitle = attempt.Quiz.Title
		}
		if attempt.Company != nil {
			item.CompanyName = attempt.Company.Name
		}
		recent = append(recent, item)
	}
	return recent, nil
}

func (s *analyticsService) GetUserQuizAnalytics(ctx context.Context, userID, quizID uuid.UUID) (*UserQuizAnalytics, error) {
	if _, err := s.repo.Quiz().GetByID(ctx, quizID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	attempts, err := s.repo.Attempt().GetByQuiz(ctx, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz attempts: %w", err)
	}

	mine := make([]*models.QuizAttempt, 0, len(attempts))
	for _, attempt := range attempts {
		if attempt.UserID == userID {
			mine = append(mine, attempt)
		}
	}

	result := &UserQuizAnalytics{
		UserID:      userID,
		QuizID:      quizID,
		Attempts:    len(mine),
		WeeklyTrend: weeklyTrend(mine),
	}
	if len(mine) == 0 {
		return result, nil
	}

	var sum float64
	for _, attempt := range mine {
		p := attempt.Percentage()
		sum += p
		if p > result.BestScore {
			result.BestScore = p
		}
	}
	result.AverageScore = models.Round2(sum / float64(len(mine)))
	result.LatestScore = mine[len(mine)-1].Percentage()
	return result, nil
}

// ===== COMPANY ANALYTICS =====

func (s *analyticsService) GetCompanyOverviewAnalytics(ctx context.Context, companyID uuid.UUID) (*CompanyOverviewAnalytics, error) {
	if _, err := s.repo.Company().GetByID(ctx, companyID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	memberCount, err := s.repo.Company().CountMembers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	quizCount, err := s.repo.Quiz().CountByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count quizzes: %w", err)
	}
	agg, err := s.repo.Attempt().GetCompanyAggregate(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate company attempts: %w", err)
	}

	result := &CompanyOverviewAnalytics{
		CompanyID:     companyID,
		MemberCount:   memberCount,
		QuizCount:     quizCount,
		TotalAttempts: agg.TotalAttempts,
		LastAttemptAt: agg.LastAttemptAt,
	}
	if agg.TotalQuestions > 0 {
		result.AverageScore = models.Round2(float64(agg.TotalCorrect) / float64(agg.TotalQuestions) * 100)
	}
	// Active members = distinct users with at least one attempt.
	result.ActiveMembers = agg.UserCount
	return result, nil
}

func (s *analyticsService) GetCompanyMembersAnalytics(ctx context.Context, companyID uuid.UUID) ([]*MemberAnalytics, error) {
	members, err := s.repo.Company().GetMembers(ctx, companyID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	results := make([]*MemberAnalytics, 0, len(members))
	for _, member := range members {
		agg, err := s.repo.Attempt().GetUserAggregate(ctx, member.UserID, &companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate member attempts: %w", err)
		}

		item := &MemberAnalytics{
			UserID:        member.UserID,
			TotalAttempts: agg.TotalAttempts,
			LastAttemptAt: agg.LastAttemptAt,
		}
		if member.User != nil {
			item.Username = member.User.Username
			item.Email = member.User.Email
		}
		if agg.TotalQuestions > 0 {
			item.AverageScore = models.Round2(float64(agg.TotalCorrect) / float64(agg.TotalQuestions) * 100)
		}
		results = append(results, item)
	}
	return results, nil
}

func (s *analyticsService) GetCompanyQuizzesAnalytics(ctx context.Context, companyID uuid.UUID) ([]*QuizAnalytics, error) {
	quizzes, err := s.repo.Quiz().GetByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get quizzes: %w", err)
	}
	memberCount, err := s.repo.Company().CountMembers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	results := make([]*QuizAnalytics, 0, len(quizzes))
	for _, quiz := range quizzes {
		attempts, err := s.repo.Attempt().GetByQuiz(ctx, quiz.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get quiz attempts: %w", err)
		}

		item := &QuizAnalytics{
			QuizID:        quiz.ID,
			Title:         quiz.Title,
			Frequency:     quiz.Frequency,
			TotalAttempts: len(attempts),
			WeeklyTrend:   weeklyTrend(attempts),
		}

		if len(attempts) > 0 {
			var sum float64
			for _, attempt := range attempts {
				sum += attempt.Percentage()
			}
			item.AverageScore = models.Round2(sum / float64(len(attempts)))
		}

		if memberCount > 0 {
			distinct, err := s.repo.Attempt().CountDistinctUsersByQuiz(ctx, quiz.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to count quiz participants: %w", err)
			}
			// Repeat attempts by the same member do not raise the rate.
			item.CompletionRate = models.Round2(float64(distinct) / float64(memberCount) * 100)
		}

		results = append(results, item)
	}
	return results, nil
}

// ===== TREND BUCKETS =====

// weeklyTrend buckets attempts by ISO week of completion and averages the
// per-attempt percentages inside each bucket. Labels look like "2024-W48"
// and sort chronologically.
func weeklyTrend(attempts []*models.QuizAttempt) []WeeklyPoint {
	if len(attempts) == 0 {
		return []WeeklyPoint{}
	}

	type bucket struct {
		count int
		sum   float64
	}
	buckets := make(map[string]*bucket)
	for _, attempt := range attempts {
		year, week := attempt.CreatedAt.ISOWeek()
		label := fmt.Sprintf("%d-W%02d", year, week)
		b, ok := buckets[label]
		if !ok {
			b = &bucket{}
			buckets[label] = b
		}
		b.count++
		b.sum += attempt.Percentage()
	}

	points := make([]WeeklyPoint, 0, len(buckets))
	for label, b := range buckets {
		points = append(points, WeeklyPoint{
			Week:         label,
			Attempts:     b.count,
			AverageScore: models.Round2(b.sum / float64(b.count)),
		})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Week < points[j].Week
	})
	return points
}
