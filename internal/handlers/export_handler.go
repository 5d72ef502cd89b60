package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quizdeck/quiz-service/internal/services"
	"github.com/quizdeck/quiz-service/internal/utils"
)

type ExportHandler struct {
	BaseHandler
	exportService services.ExportService
}

func NewExportHandler(exportService services.ExportService, logger utils.Logger) *ExportHandler {
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
	}
}

// ExportQuizResponses streams the live cached responses for a quiz as a
// JSON or CSV download. Entries past their TTL are simply absent.
// @Summary Export cached quiz responses
// @Tags exports
// @Produce json
// @Param format query string false "json or csv" default(json)
// @Param user_id query string false "restrict the export to one member"
// @Success 200 {file} file
// @Router /companies/{company_id}/quizzes/{quiz_id}/responses/export [get]
func (h *ExportHandler) ExportQuizResponses(c *gin.Context) {
	companyID, ok := uuidParam(c, "company_id")
	if !ok {
		return
	}
	quizID, ok := uuidParam(c, "quiz_id")
	if !ok {
		return
	}

	format := c.DefaultQuery("format", "json")

	var file *services.ExportFile
	var err error
	if raw := c.Query("user_id"); raw != "" {
		userID, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid user_id"})
			return
		}
		file, err = h.exportService.ExportUserResponses(c.Request.Context(), companyID, quizID, userID, format)
	} else {
		file, err = h.exportService.ExportQuizResponses(c.Request.Context(), companyID, quizID, format)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
