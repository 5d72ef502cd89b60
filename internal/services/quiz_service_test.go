package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quiz-service/internal/events"
	"github.com/quizdeck/quiz-service/internal/utils"
)

func validCreateRequest() *CreateQuizRequest {
	return &CreateQuizRequest{
		Title: "Fire Safety",
		Questions: []QuestionInput{
			{
				Title: "Where is the extinguisher?",
				Answers: []utils.AnswerInput{
					{Text: "Hallway", IsCorrect: true},
					{Text: "Roof"},
				},
			},
			{
				Title: "Emergency number?",
				Answers: []utils.AnswerInput{
					{Text: "112", IsCorrect: true},
					{Text: "42"},
					{Text: "007"},
				},
			},
		},
	}
}

type quizFixture struct {
	repo    *memRepo
	sink    *captureSink
	service QuizService

	userID    uuid.UUID
	companyID uuid.UUID
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	repo := newMemRepo()
	user := repo.addUser("creator")
	company := repo.addCompany("Acme", user.ID)
	repo.addMember(user.ID, company.ID)

	sink := &captureSink{}
	service := NewQuizService(repo, sink, testLogger(), newTestValidator())
	return &quizFixture{
		repo:      repo,
		sink:      sink,
		service:   service,
		userID:    user.ID,
		companyID: company.ID,
	}
}

func TestQuizService_Create(t *testing.T) {
	f := newQuizFixture(t)

	quiz, err := f.service.Create(context.Background(), f.companyID, validCreateRequest(), f.userID)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, quiz.ID)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, 1, quiz.Questions[0].Order)
	assert.Equal(t, 2, quiz.Questions[1].Order)
	require.Len(t, quiz.Questions[1].Answers, 3)
	assert.Equal(t, 3, quiz.Questions[1].Answers[2].Order)

	stored, err := f.repo.quizzes.GetByIDWithQuestions(context.Background(), quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fire Safety", stored.Title)

	published := f.sink.published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventQuizPublished, published[0].Type)
	data, ok := published[0].Data.(events.QuizPublishedEvent)
	require.True(t, ok)
	assert.Equal(t, quiz.ID, data.QuizID)
	assert.Equal(t, "Acme", data.CompanyName)
	assert.Equal(t, f.userID, data.CreatorID)
}

func TestQuizService_Create_TooFewQuestions(t *testing.T) {
	f := newQuizFixture(t)

	req := validCreateRequest()
	req.Questions = req.Questions[:1]

	_, err := f.service.Create(context.Background(), f.companyID, req, f.userID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, f.sink.published())
}

func TestQuizService_Create_AnswerCountBounds(t *testing.T) {
	f := newQuizFixture(t)

	tooFew := validCreateRequest()
	tooFew.Questions[0].Answers = tooFew.Questions[0].Answers[:1]
	_, err := f.service.Create(context.Background(), f.companyID, tooFew, f.userID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	tooMany := validCreateRequest()
	tooMany.Questions[0].Answers = []utils.AnswerInput{
		{Text: "a", IsCorrect: true}, {Text: "b"}, {Text: "c"}, {Text: "d"}, {Text: "e"},
	}
	_, err = f.service.Create(context.Background(), f.companyID, tooMany, f.userID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestQuizService_Create_NoCorrectAnswer(t *testing.T) {
	f := newQuizFixture(t)

	req := validCreateRequest()
	for i := range req.Questions[0].Answers {
		req.Questions[0].Answers[i].IsCorrect = false
	}

	_, err := f.service.Create(context.Background(), f.companyID, req, f.userID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestQuizService_Create_NonMember(t *testing.T) {
	f := newQuizFixture(t)
	outsider := f.repo.addUser("outsider")

	_, err := f.service.Create(context.Background(), f.companyID, validCreateRequest(), outsider.ID)
	require.ErrorIs(t, err, ErrUserNotMember)
}

func TestQuizService_Create_UnknownCompany(t *testing.T) {
	f := newQuizFixture(t)

	_, err := f.service.Create(context.Background(), uuid.New(), validCreateRequest(), f.userID)
	require.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestQuizService_Create_PublishFailureDoesNotFailCreate(t *testing.T) {
	f := newQuizFixture(t)
	f.sink.err = assert.AnError

	quiz, err := f.service.Create(context.Background(), f.companyID, validCreateRequest(), f.userID)
	require.NoError(t, err)

	_, err = f.repo.quizzes.GetByID(context.Background(), quiz.ID)
	require.NoError(t, err)
}

func TestQuizService_GetWithQuestions_ScopedToCompany(t *testing.T) {
	f := newQuizFixture(t)

	quiz, err := f.service.Create(context.Background(), f.companyID, validCreateRequest(), f.userID)
	require.NoError(t, err)

	got, err := f.service.GetWithQuestions(context.Background(), f.companyID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.ID, got.ID)

	other := f.repo.addCompany("Other", f.userID)
	_, err = f.service.GetWithQuestions(context.Background(), other.ID, quiz.ID)
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestQuizService_Delete_ScopedToCompany(t *testing.T) {
	f := newQuizFixture(t)

	quiz, err := f.service.Create(context.Background(), f.companyID, validCreateRequest(), f.userID)
	require.NoError(t, err)

	other := f.repo.addCompany("Other", f.userID)
	require.ErrorIs(t, f.service.Delete(context.Background(), other.ID, quiz.ID), ErrQuizNotFound)

	require.NoError(t, f.service.Delete(context.Background(), f.companyID, quiz.ID))
	_, err = f.repo.quizzes.GetByID(context.Background(), quiz.ID)
	require.Error(t, err)
}
