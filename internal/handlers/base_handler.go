package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/services"
	"github.com/prepdesk/examprep-service/internal/utils"
	"github.com/prepdesk/examprep-service/internal/validator"
)

type ErrorResponse = models.ErrorResponse
type SuccessResponse = models.SuccessResponse

// BaseHandler carries the helpers shared by every handler.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, msg string, err error, args ...any) {
	utils.FromContext(c.Request.Context(), h.logger).Error(msg, append(args, "error", err)...)
}

// parseIDParam reads a numeric path parameter. On failure it writes a 400
// and returns 0; callers must bail out when 0 comes back.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) uint {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
			Details: raw,
		})
		return 0
	}
	return uint(id)
}

// actorProfile pulls the authenticated profile from the request context.
// Returns nil for unauthenticated requests.
func actorProfile(c *gin.Context) *models.UserProfile {
	v, exists := c.Get("user_profile")
	if !exists {
		return nil
	}
	profile, ok := v.(*models.UserProfile)
	if !ok {
		return nil
	}
	return profile
}

// handleServiceError maps service errors onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: fieldErrors,
		})
		return
	}

	var serviceValidation services.ValidationErrors
	if errors.As(err, &serviceValidation) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: serviceValidation,
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource":  permissionError.Resource,
				"operation": permissionError.Operation,
				"reason":    permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
	case errors.Is(err, services.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Profile not found"})
	case errors.Is(err, services.ErrAccountNotActive):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: "Account not active"})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Invalid credentials"})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Email or username already registered"})
	case errors.Is(err, services.ErrTokenInvalid):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Token invalid or expired"})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Question not found"})
	case errors.Is(err, services.ErrExamTypeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam type not found"})
	case errors.Is(err, services.ErrExamYearNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam year not found"})
	case errors.Is(err, services.ErrSubjectNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Subject not found"})
	case errors.Is(err, services.ErrExamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Exam not found"})
	case errors.Is(err, services.ErrDuplicateExamType):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam type already exists"})
	case errors.Is(err, services.ErrDuplicateExamYear):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Exam year already exists for this exam type"})
	case errors.Is(err, services.ErrDuplicateSubject):
		c.JSON(http.StatusConflict, ErrorResponse{Message: "Subject already exists for this exam year"})
	default:
		h.handleInternalError(c, err)
	}
}

// handleInternalError hides raw error text unless debug error reporting is
// switched on.
func (h *BaseHandler) handleInternalError(c *gin.Context, err error) {
	h.LogError(c, "unhandled service error", err, "path", c.FullPath())

	resp := ErrorResponse{Message: "Internal server error"}
	if debugErrors(c) {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusInternalServerError, resp)
}

func debugErrors(c *gin.Context) bool {
	v, exists := c.Get("debug_errors")
	if !exists {
		return false
	}
	enabled, _ := v.(bool)
	return enabled
}

// DebugErrorsMiddleware stamps the error disclosure flag into every request
// context.
func DebugErrorsMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("debug_errors", enabled)
		c.Next()
	}
}
