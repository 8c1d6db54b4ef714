package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/services"
	"github.com/prepdesk/examprep-service/internal/utils"
)

type TaxonomyHandler struct {
	BaseHandler
	taxonomyService services.TaxonomyService
}

func NewTaxonomyHandler(taxonomyService services.TaxonomyService, logger utils.Logger) *TaxonomyHandler {
	return &TaxonomyHandler{
		BaseHandler:     NewBaseHandler(logger),
		taxonomyService: taxonomyService,
	}
}

// ===== EXAM TYPES =====

func (h *TaxonomyHandler) CreateExamType(c *gin.Context) {
	var req models.ExamTypeCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	examType, err := h.taxonomyService.CreateExamType(c.Request.Context(), &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, examType)
}

func (h *TaxonomyHandler) UpdateExamType(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.ExamTypeUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	examType, err := h.taxonomyService.UpdateExamType(c.Request.Context(), id, &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, examType)
}

func (h *TaxonomyHandler) DeleteExamType(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.taxonomyService.DeleteExamType(c.Request.Context(), id, actorProfile(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam type deleted"})
}

func (h *TaxonomyHandler) ListExamTypes(c *gin.Context) {
	types, err := h.taxonomyService.ListExamTypes(c.Request.Context(), actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, types)
}

// ===== EXAM YEARS =====

func (h *TaxonomyHandler) CreateExamYear(c *gin.Context) {
	var req models.ExamYearCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	year, err := h.taxonomyService.CreateExamYear(c.Request.Context(), &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, year)
}

func (h *TaxonomyHandler) UpdateExamYear(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.ExamYearUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	year, err := h.taxonomyService.UpdateExamYear(c.Request.Context(), id, &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, year)
}

func (h *TaxonomyHandler) DeleteExamYear(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.taxonomyService.DeleteExamYear(c.Request.Context(), id, actorProfile(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam year deleted"})
}

func (h *TaxonomyHandler) ListExamYears(c *gin.Context) {
	examTypeID, err := strconv.ParseUint(c.Query("exam_type_id"), 10, 32)
	if err != nil || examTypeID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "exam_type_id query parameter is required"})
		return
	}

	years, err := h.taxonomyService.ListExamYears(c.Request.Context(), uint(examTypeID), actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, years)
}

// ===== SUBJECTS =====

func (h *TaxonomyHandler) CreateSubject(c *gin.Context) {
	var req models.SubjectCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	subject, err := h.taxonomyService.CreateSubject(c.Request.Context(), &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

func (h *TaxonomyHandler) UpdateSubject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.SubjectUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	subject, err := h.taxonomyService.UpdateSubject(c.Request.Context(), id, &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subject)
}

func (h *TaxonomyHandler) DeleteSubject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.taxonomyService.DeleteSubject(c.Request.Context(), id, actorProfile(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Subject deleted"})
}

func (h *TaxonomyHandler) ListSubjects(c *gin.Context) {
	examYearID, err := strconv.ParseUint(c.Query("exam_year_id"), 10, 32)
	if err != nil || examYearID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "exam_year_id query parameter is required"})
		return
	}

	subjects, err := h.taxonomyService.ListSubjects(c.Request.Context(), uint(examYearID), actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subjects)
}

// ===== EXAMS =====

func (h *TaxonomyHandler) CreateExam(c *gin.Context) {
	var req models.ExamCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	exam, err := h.taxonomyService.CreateExam(c.Request.Context(), &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exam)
}

func (h *TaxonomyHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	exam, err := h.taxonomyService.GetExam(c.Request.Context(), id, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

func (h *TaxonomyHandler) UpdateExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req models.ExamUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	exam, err := h.taxonomyService.UpdateExam(c.Request.Context(), id, &req, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, exam)
}

func (h *TaxonomyHandler) DeleteExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	if err := h.taxonomyService.DeleteExam(c.Request.Context(), id, actorProfile(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Exam deleted"})
}

func (h *TaxonomyHandler) ListExams(c *gin.Context) {
	params := services.ExamListParams{
		Page: queryInt(c, "page", 1),
		Size: queryInt(c, "size", 20),
	}
	if v := c.Query("subject_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			subjectID := uint(id)
			params.SubjectID = &subjectID
		}
	}
	if v := c.Query("created_by"); v != "" {
		params.CreatedBy = &v
	}

	resp, err := h.taxonomyService.ListExams(c.Request.Context(), params, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
