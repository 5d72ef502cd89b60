package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quizdeck/quiz-service/internal/cache"
	"github.com/quizdeck/quiz-service/internal/events"
	"github.com/quizdeck/quiz-service/internal/models"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"github.com/quizdeck/quiz-service/internal/utils"
)

func testLogger() utils.Logger {
	return utils.NewDevelopmentLogger()
}

func newTestValidator() *utils.Validator {
	return utils.NewValidator()
}

// memRepo is an in-memory Repository for service tests. Behavior mirrors
// the PostgreSQL implementations, including gorm.ErrRecordNotFound on
// missing rows.
type memRepo struct {
	users         *memUserRepo
	companies     *memCompanyRepo
	quizzes       *memQuizRepo
	attempts      *memAttemptRepo
	notifications *memNotificationRepo
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:         &memUserRepo{users: make(map[uuid.UUID]*models.User)},
		companies:     &memCompanyRepo{companies: make(map[uuid.UUID]*models.Company)},
		quizzes:       &memQuizRepo{quizzes: make(map[uuid.UUID]*models.Quiz)},
		attempts:      &memAttemptRepo{},
		notifications: &memNotificationRepo{},
	}
}

func (r *memRepo) User() repositories.UserRepository                 { return r.users }
func (r *memRepo) Company() repositories.CompanyRepository           { return r.companies }
func (r *memRepo) Quiz() repositories.QuizRepository                 { return r.quizzes }
func (r *memRepo) Attempt() repositories.AttemptRepository           { return r.attempts }
func (r *memRepo) Notification() repositories.NotificationRepository { return r.notifications }

// ===== FIXTURE HELPERS =====

func (r *memRepo) addUser(username string) *models.User {
	user := &models.User{ID: uuid.New(), Username: username, Email: username + "@example.com", IsActive: true}
	r.users.users[user.ID] = user
	return user
}

func (r *memRepo) addCompany(name string, ownerID uuid.UUID) *models.Company {
	company := &models.Company{ID: uuid.New(), Name: name, OwnerID: ownerID}
	r.companies.companies[company.ID] = company
	return company
}

func (r *memRepo) addMember(userID, companyID uuid.UUID) {
	member := &models.CompanyMember{ID: uuid.New(), UserID: userID, CompanyID: companyID}
	if user, ok := r.users.users[userID]; ok {
		member.User = user
	}
	r.companies.members = append(r.companies.members, member)
}

// addQuiz builds a quiz where every question has the given answer layout:
// correct answers first, then incorrect, all with generated ids.
func (r *memRepo) addQuiz(companyID uuid.UUID, title string, questions int, correctPerQuestion, wrongPerQuestion int) *models.Quiz {
	quiz := &models.Quiz{ID: uuid.New(), Title: title, CompanyID: companyID}
	for i := 0; i < questions; i++ {
		question := models.Question{ID: uuid.New(), QuizID: quiz.ID, Title: title, Order: i + 1}
		for j := 0; j < correctPerQuestion; j++ {
			question.Answers = append(question.Answers, models.Answer{
				ID: uuid.New(), QuestionID: question.ID, Text: "right", IsCorrect: true, Order: j + 1,
			})
		}
		for j := 0; j < wrongPerQuestion; j++ {
			question.Answers = append(question.Answers, models.Answer{
				ID: uuid.New(), QuestionID: question.ID, Text: "wrong", Order: correctPerQuestion + j + 1,
			})
		}
		quiz.Questions = append(quiz.Questions, question)
	}
	r.quizzes.quizzes[quiz.ID] = quiz
	return quiz
}

func (r *memRepo) addAttempt(userID, quizID, companyID uuid.UUID, score, total int, at time.Time) *models.QuizAttempt {
	attempt := &models.QuizAttempt{
		ID:             uuid.New(),
		UserID:         userID,
		QuizID:         quizID,
		CompanyID:      companyID,
		Score:          score,
		TotalQuestions: total,
		CreatedAt:      at,
	}
	r.attempts.attempts = append(r.attempts.attempts, attempt)
	return attempt
}

// ===== USER =====

type memUserRepo struct {
	users map[uuid.UUID]*models.User
}

func (m *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.User, error) {
	var result []*models.User
	for _, id := range ids {
		if user, ok := m.users[id]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

// ===== COMPANY =====

type memCompanyRepo struct {
	companies map[uuid.UUID]*models.Company
	members   []*models.CompanyMember
}

func (m *memCompanyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	if company, ok := m.companies[id]; ok {
		return company, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCompanyRepo) GetMembers(ctx context.Context, companyID uuid.UUID) ([]*models.CompanyMember, error) {
	if _, ok := m.companies[companyID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var result []*models.CompanyMember
	for _, member := range m.members {
		if member.CompanyID == companyID {
			result = append(result, member)
		}
	}
	return result, nil
}

func (m *memCompanyRepo) GetMember(ctx context.Context, userID, companyID uuid.UUID) (*models.CompanyMember, error) {
	for _, member := range m.members {
		if member.UserID == userID && member.CompanyID == companyID {
			return member, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCompanyRepo) CountMembers(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	for _, member := range m.members {
		if member.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

func (m *memCompanyRepo) GetMemberUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, member := range m.members {
		if member.CompanyID == companyID {
			ids = append(ids, member.UserID)
		}
	}
	return ids, nil
}

// ===== QUIZ =====

type memQuizRepo struct {
	quizzes      map[uuid.UUID]*models.Quiz
	createErr    error
	incrementErr error
	increments   int
}

func (m *memQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	if m.createErr != nil {
		return m.createErr
	}
	quiz.ID = uuid.New()
	quiz.CreatedAt = time.Now().UTC()
	for i := range quiz.Questions {
		quiz.Questions[i].ID = uuid.New()
		quiz.Questions[i].QuizID = quiz.ID
		for j := range quiz.Questions[i].Answers {
			quiz.Questions[i].Answers[j].ID = uuid.New()
			quiz.Questions[i].Answers[j].QuestionID = quiz.Questions[i].ID
		}
	}
	m.quizzes[quiz.ID] = quiz
	return nil
}

func (m *memQuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	if quiz, ok := m.quizzes[id]; ok {
		return quiz, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memQuizRepo) GetByIDWithQuestions(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	return m.GetByID(ctx, id)
}

func (m *memQuizRepo) GetByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.Quiz, error) {
	var result []*models.Quiz
	for _, quiz := range m.quizzes {
		if quiz.CompanyID == companyID {
			result = append(result, quiz)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Title < result[j].Title })
	return result, nil
}

func (m *memQuizRepo) CountByCompany(ctx context.Context, companyID uuid.UUID) (int64, error) {
	quizzes, _ := m.GetByCompany(ctx, companyID)
	return int64(len(quizzes)), nil
}

func (m *memQuizRepo) IncrementFrequency(ctx context.Context, id uuid.UUID) error {
	if m.incrementErr != nil {
		return m.incrementErr
	}
	quiz, ok := m.quizzes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	quiz.Frequency++
	m.increments++
	return nil
}

func (m *memQuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.quizzes[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.quizzes, id)
	return nil
}

// ===== ATTEMPT =====

type memAttemptRepo struct {
	attempts  []*models.QuizAttempt
	createErr error
}

func (m *memAttemptRepo) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	if m.createErr != nil {
		return m.createErr
	}
	attempt.ID = uuid.New()
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	m.attempts = append(m.attempts, attempt)
	return nil
}

func (m *memAttemptRepo) filter(match func(*models.QuizAttempt) bool) []*models.QuizAttempt {
	var result []*models.QuizAttempt
	for _, attempt := range m.attempts {
		if match(attempt) {
			result = append(result, attempt)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result
}

func (m *memAttemptRepo) GetByUser(ctx context.Context, userID uuid.UUID) ([]*models.QuizAttempt, error) {
	return m.filter(func(a *models.QuizAttempt) bool { return a.UserID == userID }), nil
}

func (m *memAttemptRepo) GetByUserAndCompany(ctx context.Context, userID, companyID uuid.UUID) ([]*models.QuizAttempt, error) {
	return m.filter(func(a *models.QuizAttempt) bool {
		return a.UserID == userID && a.CompanyID == companyID
	}), nil
}

func (m *memAttemptRepo) GetByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.QuizAttempt, error) {
	return m.filter(func(a *models.QuizAttempt) bool { return a.CompanyID == companyID }), nil
}

func (m *memAttemptRepo) GetByQuiz(ctx context.Context, quizID uuid.UUID) ([]*models.QuizAttempt, error) {
	return m.filter(func(a *models.QuizAttempt) bool { return a.QuizID == quizID }), nil
}

func (m *memAttemptRepo) GetRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.QuizAttempt, error) {
	mine := m.filter(func(a *models.QuizAttempt) bool { return a.UserID == userID })
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	if len(mine) > limit {
		mine = mine[:limit]
	}
	return mine, nil
}

func (m *memAttemptRepo) GetUserAggregate(ctx context.Context, userID uuid.UUID, companyID *uuid.UUID) (*repositories.AttemptAggregate, error) {
	matching := m.filter(func(a *models.QuizAttempt) bool {
		if a.UserID != userID {
			return false
		}
		return companyID == nil || a.CompanyID == *companyID
	})
	return aggregate(matching), nil
}

func (m *memAttemptRepo) GetCompanyAggregate(ctx context.Context, companyID uuid.UUID) (*repositories.AttemptAggregate, error) {
	matching := m.filter(func(a *models.QuizAttempt) bool { return a.CompanyID == companyID })
	return aggregate(matching), nil
}

func aggregate(attempts []*models.QuizAttempt) *repositories.AttemptAggregate {
	agg := &repositories.AttemptAggregate{}
	companies := make(map[uuid.UUID]struct{})
	quizzes := make(map[uuid.UUID]struct{})
	users := make(map[uuid.UUID]struct{})
	for _, a := range attempts {
		agg.TotalAttempts++
		agg.TotalQuestions += int64(a.TotalQuestions)
		agg.TotalCorrect += int64(a.Score)
		companies[a.CompanyID] = struct{}{}
		quizzes[a.QuizID] = struct{}{}
		users[a.UserID] = struct{}{}
		if agg.LastAttemptAt == nil || a.CreatedAt.After(*agg.LastAttemptAt) {
			at := a.CreatedAt
			agg.LastAttemptAt = &at
		}
	}
	agg.CompanyCount = int64(len(companies))
	agg.QuizCount = int64(len(quizzes))
	agg.UserCount = int64(len(users))
	return agg
}

func (m *memAttemptRepo) CountDistinctUsersByQuiz(ctx context.Context, quizID uuid.UUID) (int64, error) {
	users := make(map[uuid.UUID]struct{})
	for _, a := range m.attempts {
		if a.QuizID == quizID {
			users[a.UserID] = struct{}{}
		}
	}
	return int64(len(users)), nil
}

// ===== NOTIFICATION =====

type memNotificationRepo struct {
	notifications []*models.Notification
	batchErr      error
}

func (m *memNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now().UTC()
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *memNotificationRepo) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	if m.batchErr != nil {
		return m.batchErr
	}
	for _, n := range notifications {
		n.ID = uuid.New()
		n.CreatedAt = time.Now().UTC()
		m.notifications = append(m.notifications, n)
	}
	return nil
}

func (m *memNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	for _, n := range m.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memNotificationRepo) GetByUser(ctx context.Context, userID uuid.UUID, filters repositories.NotificationFilters) ([]*models.Notification, error) {
	var result []*models.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if filters.UnreadOnly && n.IsRead {
			continue
		}
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if filters.Offset < len(result) {
		result = result[filters.Offset:]
	} else {
		result = nil
	}
	if filters.Limit > 0 && len(result) > filters.Limit {
		result = result[:filters.Limit]
	}
	return result, nil
}

func (m *memNotificationRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *memNotificationRepo) Update(ctx context.Context, notification *models.Notification) error {
	for i, n := range m.notifications {
		if n.ID == notification.ID {
			m.notifications[i] = notification
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *memNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	now := time.Now().UTC()
	var changed int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			changed++
		}
	}
	return changed, nil
}

// ===== RESPONSE CACHE =====

// memResponseStore is an in-memory cache.ResponseStore with optional
// failure injection per question id.
type memResponseStore struct {
	mu        sync.Mutex
	responses map[string]*cache.QuizResponse
	failFor   map[uuid.UUID]error
}

func newMemResponseStore() *memResponseStore {
	return &memResponseStore{
		responses: make(map[string]*cache.QuizResponse),
		failFor:   make(map[uuid.UUID]error),
	}
}

func (s *memResponseStore) StoreResponse(ctx context.Context, response *cache.QuizResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failFor[response.QuestionID]; ok {
		return err
	}
	key := cache.ResponseKey(response.UserID, response.QuizID, response.QuestionID)
	s.responses[key] = response
	return nil
}

func (s *memResponseStore) GetQuizResponses(ctx context.Context, userID, quizID uuid.UUID) ([]*cache.QuizResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*cache.QuizResponse{}
	for _, r := range s.responses {
		if r.UserID == userID && r.QuizID == quizID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AnsweredAt.Before(result[j].AnsweredAt) })
	return result, nil
}

func (s *memResponseStore) DeleteQuizResponses(ctx context.Context, userID, quizID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, r := range s.responses {
		if r.UserID == userID && r.QuizID == quizID {
			delete(s.responses, key)
			removed++
		}
	}
	return removed, nil
}

func (s *memResponseStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.responses)
}

// ===== EVENT SINK =====

// captureSink records published events for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (c *captureSink) Publish(event *events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func (c *captureSink) published() []*events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*events.Event(nil), c.events...)
}
