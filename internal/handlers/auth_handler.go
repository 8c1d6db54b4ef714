package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/examprep-service/internal/config"
	"github.com/prepdesk/examprep-service/internal/services"
	"github.com/prepdesk/examprep-service/internal/utils"
)

// AuthHandler is a single dispatcher for every authentication endpoint,
// routed on (method, trailing path segment).
type AuthHandler struct {
	BaseHandler
	authService services.AuthService
	cfg         *config.Config
}

func NewAuthHandler(authService services.AuthService, logger utils.Logger, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
		cfg:         cfg,
	}
}

// Handle dispatches /auth/* requests. Unmatched combinations get a 404.
func (h *AuthHandler) Handle(c *gin.Context) {
	action := strings.Trim(c.Param("action"), "/")
	if i := strings.LastIndex(action, "/"); i >= 0 {
		action = action[i+1:]
	}

	switch {
	case c.Request.Method == http.MethodPost && action == "signup":
		h.signup(c)
	case c.Request.Method == http.MethodPost && action == "login":
		h.login(c)
	case c.Request.Method == http.MethodPost && action == "logout":
		h.logout(c)
	case c.Request.Method == http.MethodGet && action == "activate":
		h.activate(c)
	case c.Request.Method == http.MethodPost && action == "forgot-password":
		h.forgotPassword(c)
	case c.Request.Method == http.MethodPost && action == "reset-password":
		h.resetPassword(c)
	case c.Request.Method == http.MethodGet && action == "create-admin":
		h.createAdmin(c)
	default:
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "endpoint not found"})
	}
}

func (h *AuthHandler) signup(c *gin.Context) {
	var req services.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	resp, err := h.authService.Signup(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *AuthHandler) logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), c.GetString("user_id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Logged out"})
}

// activate consumes the emailed token and redirects the browser to the login
// page with a success flag.
func (h *AuthHandler) activate(c *gin.Context) {
	token := c.Query("token")
	if err := h.authService.Activate(c.Request.Context(), token); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("%s/login?activated=true", h.cfg.FrontendBaseURL))
}

// forgotPassword answers identically for known and unknown addresses.
func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var req services.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "If the address is registered, a reset link has been sent",
	})
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Password updated"})
}

func (h *AuthHandler) createAdmin(c *gin.Context) {
	if err := h.authService.CreateAdmin(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Admin account ready",
		Data: map[string]string{
			"email":    h.cfg.AdminEmail,
			"username": h.cfg.AdminUsername,
		},
	})
}

// Me returns the session snapshot for the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}

	data, err := h.authService.FetchUserData(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
