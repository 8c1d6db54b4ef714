package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/services"
	"github.com/prepdesk/examprep-service/internal/utils"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// GetMyProfile returns the authenticated user's profile.
func (h *UserHandler) GetMyProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateMyProfile updates the authenticated user's profile fields.
func (h *UserHandler) UpdateMyProfile(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	var req models.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	profile, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// ListUsers is an admin-only directory listing.
func (h *UserHandler) ListUsers(c *gin.Context) {
	params := services.UserListParams{
		Query: c.Query("q"),
		Page:  queryInt(c, "page", 1),
		Size:  queryInt(c, "size", 20),
	}
	if v := c.Query("role"); v != "" {
		role := models.UserRole(v)
		params.Role = &role
	}

	resp, err := h.userService.List(c.Request.Context(), params, actorProfile(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChangeRole reassigns a user's role.
func (h *UserHandler) ChangeRole(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Missing user id"})
		return
	}

	var req models.RoleChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.userService.ChangeRole(c.Request.Context(), targetID, req.Role, actorProfile(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Role updated"})
}

// SetActive toggles a user's activation flag.
func (h *UserHandler) SetActive(c *gin.Context) {
	targetID := c.Param("id")
	if targetID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Missing user id"})
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request payload", Details: err.Error()})
		return
	}

	if err := h.userService.SetActive(c.Request.Context(), targetID, *req.Active, actorProfile(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Account state updated"})
}
