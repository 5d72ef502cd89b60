package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/quizdeck/quiz-service/internal/errors"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// ImportService bulk-creates quizzes from an uploaded Excel workbook.
//
// Expected columns (header row, case-insensitive): quiz_title,
// quiz_description, question_text, question_order, answer_text, is_correct,
// answer_order. Rows sharing a quiz_title build one quiz; rows sharing a
// question_text within a quiz build one question.
type ImportService interface {
	ImportQuizzesFromExcel(ctx context.Context, reader io.Reader, companyID, creatorID uuid.UUID) (*ImportResult, error)
}

type importService struct {
	quizzes QuizService
	logger  utils.Logger
}

func NewImportService(quizzes QuizService, logger utils.Logger) ImportService {
	return &importService{quizzes: quizzes, logger: logger}
}

type ImportResult struct {
	TotalRows    int           `json:"total_rows"`
	QuizzesFound int           `json:"quizzes_found"`
	Created      int           `json:"created"`
	Errors       []ImportError `json:"errors"`
}

type ImportError struct {
	QuizTitle string `json:"quiz_title,omitempty"`
	Row       int    `json:"row,omitempty"`
	Message   string `json:"message"`
}

func (s *importService) ImportQuizzesFromExcel(ctx context.Context, reader io.Reader, companyID, creatorID uuid.UUID) (*ImportResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrEmptyImportFile
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{"quiz_title", "question_text", "answer_text", "is_correct"} {
		if _, ok := headerMap[required]; !ok {
			return nil, apperrors.NewValidationError("file", fmt.Sprintf("missing required column %q", required), nil)
		}
	}

	result := &ImportResult{TotalRows: len(rows) - 1}

	drafts, order := s.groupRows(rows[1:], headerMap, result)
	result.QuizzesFound = len(order)

	for _, title := range order {
		draft := drafts[title]
		req := draft.toRequest()
		if _, err := s.quizzes.Create(ctx, companyID, req, creatorID); err != nil {
			result.Errors = append(result.Errors, ImportError{
				QuizTitle: title,
				Message:   err.Error(),
			})
			continue
		}
		result.Created++
	}

	s.logger.Info("Excel import completed",
		"total_rows", result.TotalRows,
		"quizzes_found", result.QuizzesFound,
		"created", result.Created,
		"errors", len(result.Errors))

	return result, nil
}

type quizDraft struct {
	title         string
	description   *string
	questions     map[string]*questionDraft
	questionOrder []string
}

type questionDraft struct {
	text    string
	order   int
	answers []utils.AnswerInput
}

func (d *quizDraft) toRequest() *CreateQuizRequest {
	req := &CreateQuizRequest{
		Title:       d.title,
		Description: d.description,
		Questions:   make([]QuestionInput, 0, len(d.questionOrder)),
	}
	for i, text := range d.questionOrder {
		q := d.questions[text]
		order := q.order
		if order == 0 {
			order = i + 1
		}
		req.Questions = append(req.Questions, QuestionInput{
			Title:   q.text,
			Order:   order,
			Answers: q.answers,
		})
	}
	return req
}

// groupRows folds the flat row list into quiz drafts, preserving first-seen
// order for quizzes and questions. Unreadable rows are recorded in the
// result and skipped; they never abort the whole import.
func (s *importService) groupRows(rows [][]string, headerMap map[string]int, result *ImportResult) (map[string]*quizDraft, []string) {
	drafts := make(map[string]*quizDraft)
	var order []string

	for i, row := range rows {
		rowNum := i + 2

		title := strings.TrimSpace(cellAt(row, headerMap, "quiz_title"))
		questionText := strings.TrimSpace(cellAt(row, headerMap, "question_text"))
		answerText := strings.TrimSpace(cellAt(row, headerMap, "answer_text"))
		if title == "" && questionText == "" && answerText == "" {
			continue
		}
		if title == "" || questionText == "" || answerText == "" {
			result.Errors = append(result.Errors, ImportError{
				Row:     rowNum,
				Message: "quiz_title, question_text and answer_text are all required",
			})
			continue
		}

		isCorrect, err := parseBoolCell(cellAt(row, headerMap, "is_correct"))
		if err != nil {
			result.Errors = append(result.Errors, ImportError{
				Row:     rowNum,
				Message: fmt.Sprintf("unreadable is_correct value: %v", err),
			})
			continue
		}

		draft, ok := drafts[title]
		if !ok {
			draft = &quizDraft{
				title:     title,
				questions: make(map[string]*questionDraft),
			}
			if desc := strings.TrimSpace(cellAt(row, headerMap, "quiz_description")); desc != "" {
				draft.description = &desc
			}
			drafts[title] = draft
			order = append(order, title)
		}

		question, ok := draft.questions[questionText]
		if !ok {
			question = &questionDraft{text: questionText}
			if raw := strings.TrimSpace(cellAt(row, headerMap, "question_order")); raw != "" {
				if n, err := strconv.Atoi(raw); err == nil {
					question.order = n
				}
			}
			draft.questions[questionText] = question
			draft.questionOrder = append(draft.questionOrder, questionText)
		}

		answerOrder := 0
		if raw := strings.TrimSpace(cellAt(row, headerMap, "answer_order")); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil {
				answerOrder = n
			}
		}
		question.answers = append(question.answers, utils.AnswerInput{
			Text:      answerText,
			IsCorrect: isCorrect,
			Order:     answerOrder,
		})
	}

	return drafts, order
}

func cellAt(row []string, headerMap map[string]int, column string) string {
	idx, ok := headerMap[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parseBoolCell(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "y":
		return true, nil
	case "false", "no", "0", "n", "":
		return false, nil
	default:
		return strconv.ParseBool(raw)
	}
}
