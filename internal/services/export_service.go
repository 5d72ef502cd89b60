package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/quizdeck/quiz-service/internal/cache"
	"github.com/quizdeck/quiz-service/internal/repositories"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// ExportService renders the live cached responses for a quiz as a download.
// Exports read only the response cache: entries past their TTL are simply
// missing from the file, and an empty export is a valid file, not an error.
type ExportService interface {
	// ExportQuizResponses collects every member's live responses for the
	// quiz and renders them in the requested format ("json" or "csv").
	ExportQuizResponses(ctx context.Context, companyID, quizID uuid.UUID, format string) (*ExportFile, error)

	// ExportUserResponses renders a single member's live responses for the
	// quiz in the requested format.
	ExportUserResponses(ctx context.Context, companyID, quizID, userID uuid.UUID, format string) (*ExportFile, error)
}

type exportService struct {
	repo      repositories.Repository
	responses cache.ResponseStore
	logger    utils.Logger
}

func NewExportService(repo repositories.Repository, responses cache.ResponseStore, logger utils.Logger) ExportService {
	return &exportService{
		repo:      repo,
		responses: responses,
		logger:    logger,
	}
}

type ExportFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

func (s *exportService) ExportQuizResponses(ctx context.Context, companyID, quizID uuid.UUID, format string) (*ExportFile, error) {
	if format != "json" && format != "csv" {
		return nil, ErrUnsupportedFormat
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CompanyID != companyID {
		return nil, ErrQuizNotFound
	}

	memberIDs, err := s.repo.Company().GetMemberUserIDs(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company members: %w", err)
	}

	responses, err := s.collectResponses(ctx, memberIDs, quizID)
	if err != nil {
		return nil, err
	}

	return renderExport(responses, fmt.Sprintf("quiz-%s-responses", quizID), format)
}

func (s *exportService) ExportUserResponses(ctx context.Context, companyID, quizID, userID uuid.UUID, format string) (*ExportFile, error) {
	if format != "json" && format != "csv" {
		return nil, ErrUnsupportedFormat
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	if quiz.CompanyID != companyID {
		return nil, ErrQuizNotFound
	}

	if _, err := s.repo.Company().GetMember(ctx, userID, companyID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotMember
		}
		return nil, fmt.Errorf("failed to get company member: %w", err)
	}

	responses, err := s.responses.GetQuizResponses(ctx, userID, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to read responses for user %s: %w", userID, err)
	}
	if responses == nil {
		responses = []*cache.QuizResponse{}
	}

	return renderExport(responses, fmt.Sprintf("quiz-%s-user-%s-responses", quizID, userID), format)
}

func renderExport(responses []*cache.QuizResponse, baseName, format string) (*ExportFile, error) {
	stamp := time.Now().UTC().Format("20060102-150405")
	switch format {
	case "json":
		data, err := json.MarshalIndent(responses, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode export: %w", err)
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("%s-%s.json", baseName, stamp),
			ContentType: "application/json",
			Data:        data,
		}, nil
	default:
		data, err := renderCSV(responses)
		if err != nil {
			return nil, err
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("%s-%s.csv", baseName, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

// collectResponses fans the cache reads out across members. Results are
// merged and ordered by user then answered-at so the file is deterministic
// for a given cache state.
func (s *exportService) collectResponses(ctx context.Context, memberIDs []uuid.UUID, quizID uuid.UUID) ([]*cache.QuizResponse, error) {
	var mu sync.Mutex
	var all []*cache.QuizResponse

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, memberID := range memberIDs {
		userID := memberID
		g.Go(func() error {
			responses, err := s.responses.GetQuizResponses(ctx, userID, quizID)
			if err != nil {
				return fmt.Errorf("failed to read responses for user %s: %w", userID, err)
			}
			mu.Lock()
			all = append(all, responses...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].UserID != all[j].UserID {
			return all[i].UserID.String() < all[j].UserID.String()
		}
		return all[i].AnsweredAt.Before(all[j].AnsweredAt)
	})
	if all == nil {
		all = []*cache.QuizResponse{}
	}
	return all, nil
}

func renderCSV(responses []*cache.QuizResponse) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"user_id", "company_id", "quiz_id", "question_id", "answer_ids", "is_correct", "answered_at"}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, r := range responses {
		// answer_ids stays a JSON array inside the cell so multi-select
		// answers survive the flat format.
		answerIDs, err := json.Marshal(r.AnswerIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode answer ids: %w", err)
		}
		record := []string{
			r.UserID.String(),
			r.CompanyID.String(),
			r.QuizID.String(),
			r.QuestionID.String(),
			string(answerIDs),
			fmt.Sprintf("%t", r.IsCorrect),
			r.AnsweredAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
