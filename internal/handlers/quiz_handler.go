package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
)

type QuizHandler struct {
	BaseHandler
	quizService   services.QuizService
	importService services.ImportService
	validator     *utils.Validator
}

func NewQuizHandler(
	quizService services.QuizService,
	importService services.ImportService,
	validator *utils.Validator,
	logger utils.Logger,
) *QuizHandler {
	return &QuizHandler{
		BaseHandler:   NewBaseHandler(logger),
		quizService:   quizService,
		importService: importService,
		validator:     validator,
	}
}

// CreateQuiz creates a quiz with its questions and answers
// @Summary Create quiz
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quiz body services.CreateQuizRequest true "Quiz data"
// @Success 201 {object} models.Quiz
// @Failure 400 {object} ErrorResponse
// @Router /companies/{company_id}/quizzes [post]
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}

	var req services.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	quiz, err := h.quizService.Create(c.Request.Context(), companyID, &req, identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, quiz)
}

// GetQuiz returns a quiz with its ordered questions and answers
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetWithQuestions(c.Request.Context(), companyID, quizID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quiz)
}

// ListQuizzes returns all quizzes of a company
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}

	quizzes, err := h.quizService.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, quizzes)
}

// DeleteQuiz removes a quiz
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), companyID, quizID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Quiz deleted"})
}

// ImportQuizzes bulk-creates quizzes from an uploaded Excel workbook
// @Summary Import quizzes from Excel
// @Tags quizzes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Workbook"
// @Success 200 {object} services.ImportResult
// @Router /companies/{company_id}/quizzes/import [post]
func (h *QuizHandler) ImportQuizzes(c *gin.Context) {
	identity, ok := identityFrom(c)
	if !ok {
		return
	}
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unreadable file upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importService.ImportQuizzesFromExcel(c.Request.Context(), file, companyID, identity.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
