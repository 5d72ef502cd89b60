package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizdeck/quiz-service/internal/cache"
)

func exportFixture(t *testing.T) (*memRepo, *memResponseStore, ExportService, uuid.UUID, uuid.UUID, []uuid.UUID) {
	t.Helper()

	repo := newMemRepo()
	owner := repo.addUser("owner")
	company := repo.addCompany("Acme", owner.ID)
	repo.addMember(owner.ID, company.ID)
	member := repo.addUser("member")
	repo.addMember(member.ID, company.ID)
	quiz := repo.addQuiz(company.ID, "Audit", 2, 1, 1)

	responses := newMemResponseStore()
	service := NewExportService(repo, responses, testLogger())
	return repo, responses, service, company.ID, quiz.ID, []uuid.UUID{owner.ID, member.ID}
}

func seedResponse(t *testing.T, store *memResponseStore, userID, companyID, quizID, questionID uuid.UUID, correct bool, at time.Time) {
	t.Helper()
	err := store.StoreResponse(context.Background(), &cache.QuizResponse{
		UserID:     userID,
		CompanyID:  companyID,
		QuizID:     quizID,
		QuestionID: questionID,
		AnswerIDs:  []uuid.UUID{uuid.New(), uuid.New()},
		IsCorrect:  correct,
		AnsweredAt: at,
	})
	require.NoError(t, err)
}

func TestExportService_JSON(t *testing.T) {
	_, responses, service, companyID, quizID, memberIDs := exportFixture(t)

	now := time.Now().UTC().Truncate(time.Second)
	seedResponse(t, responses, memberIDs[0], companyID, quizID, uuid.New(), true, now)
	seedResponse(t, responses, memberIDs[1], companyID, quizID, uuid.New(), false, now.Add(time.Minute))

	file, err := service.ExportQuizResponses(context.Background(), companyID, quizID, "json")
	require.NoError(t, err)

	assert.Equal(t, "application/json", file.ContentType)
	assert.Contains(t, file.Filename, ".json")

	var decoded []*cache.QuizResponse
	require.NoError(t, json.Unmarshal(file.Data, &decoded))
	require.Len(t, decoded, 2)
}

func TestExportService_CSV(t *testing.T) {
	_, responses, service, companyID, quizID, memberIDs := exportFixture(t)

	now := time.Now().UTC().Truncate(time.Second)
	seedResponse(t, responses, memberIDs[0], companyID, quizID, uuid.New(), true, now)

	file, err := service.ExportQuizResponses(context.Background(), companyID, quizID, "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", file.ContentType)

	records, err := csv.NewReader(strings.NewReader(string(file.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, []string{"user_id", "company_id", "quiz_id", "question_id", "answer_ids", "is_correct", "answered_at"}, records[0])

	row := records[1]
	assert.Equal(t, memberIDs[0].String(), row[0])
	assert.Equal(t, "true", row[5])

	// Multi-select answers survive as a JSON array inside the cell.
	var answerIDs []uuid.UUID
	require.NoError(t, json.Unmarshal([]byte(row[4]), &answerIDs))
	assert.Len(t, answerIDs, 2)
}

func TestExportService_EmptyCacheIsValidFile(t *testing.T) {
	_, _, service, companyID, quizID, _ := exportFixture(t)

	file, err := service.ExportQuizResponses(context.Background(), companyID, quizID, "json")
	require.NoError(t, err)

	var decoded []*cache.QuizResponse
	require.NoError(t, json.Unmarshal(file.Data, &decoded))
	assert.Empty(t, decoded)

	csvFile, err := service.ExportQuizResponses(context.Background(), companyID, quizID, "csv")
	require.NoError(t, err)
	records, err := csv.NewReader(strings.NewReader(string(csvFile.Data))).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "header only")
}

func TestExportService_UnsupportedFormat(t *testing.T) {
	_, _, service, companyID, quizID, _ := exportFixture(t)

	_, err := service.ExportQuizResponses(context.Background(), companyID, quizID, "xml")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExportService_UserScopedExport(t *testing.T) {
	_, responses, service, companyID, quizID, memberIDs := exportFixture(t)

	now := time.Now().UTC().Truncate(time.Second)
	seedResponse(t, responses, memberIDs[0], companyID, quizID, uuid.New(), true, now)
	seedResponse(t, responses, memberIDs[1], companyID, quizID, uuid.New(), false, now)

	file, err := service.ExportUserResponses(context.Background(), companyID, quizID, memberIDs[1], "json")
	require.NoError(t, err)
	assert.Contains(t, file.Filename, memberIDs[1].String())

	var decoded []*cache.QuizResponse
	require.NoError(t, json.Unmarshal(file.Data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, memberIDs[1], decoded[0].UserID)
}

func TestExportService_UserScopedExport_NonMember(t *testing.T) {
	repo, _, service, companyID, quizID, _ := exportFixture(t)

	outsider := repo.addUser("outsider")
	_, err := service.ExportUserResponses(context.Background(), companyID, quizID, outsider.ID, "json")
	require.ErrorIs(t, err, ErrUserNotMember)
}

func TestExportService_QuizScopedToCompany(t *testing.T) {
	repo, _, service, _, quizID, memberIDs := exportFixture(t)

	other := repo.addCompany("Other", memberIDs[0])
	_, err := service.ExportQuizResponses(context.Background(), other.ID, quizID, "json")
	require.ErrorIs(t, err, ErrQuizNotFound)
}
