package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/services"
	"github.com/prepdesk/examprep-service/internal/utils"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importExport    services.ImportExportService
}

func NewQuestionHandler(questionService services.QuestionService, importExport services.ImportExportService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importExport:    importExport,
	}
}

func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, question)
}

func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	// Nil means the caller lacks view permission; mirror that as null.
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, question)
}

func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id, actorProfile(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	params := services.QuestionListParams{
		Page:      queryInt(c, "page", 1),
		Size:      queryInt(c, "size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if v := c.Query("subject_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			subjectID := uint(id)
			params.SubjectID = &subjectID
		}
	}
	if v := c.Query("type"); v != "" {
		qt := models.QuestionType(v)
		params.Type = &qt
	}
	if v := c.Query("difficulty"); v != "" {
		d := models.DifficultyLevel(v)
		params.Difficulty = &d
	}
	if v := c.Query("created_by"); v != "" {
		params.CreatedBy = &v
	}

	resp, err := h.questionService.List(c.Request.Context(), params, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ImportQuestions ingests an uploaded xlsx workbook.
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importExport.ImportQuestions(c.Request.Context(), file, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Import finished", Data: result})
}

// ExportQuestions streams the question bank as an xlsx workbook.
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	params := services.QuestionListParams{}
	if v := c.Query("subject_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			subjectID := uint(id)
			params.SubjectID = &subjectID
		}
	}

	data, err := h.importExport.ExportQuestions(c.Request.Context(), params, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="questions.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func queryInt(c *gin.Context, name string, def int) int {
	v := c.Query(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
