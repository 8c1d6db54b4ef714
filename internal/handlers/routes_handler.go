package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/examprep-service/internal/permissions"
	"github.com/prepdesk/examprep-service/internal/utils"
)

// RoutesHandler answers route-guard queries so the frontend can evaluate
// access with the same rules the backend enforces.
type RoutesHandler struct {
	BaseHandler
}

func NewRoutesHandler(logger utils.Logger) *RoutesHandler {
	return &RoutesHandler{BaseHandler: NewBaseHandler(logger)}
}

// CheckAccess reports whether the caller may open the given frontend path.
// Works for anonymous callers too; they are limited to the public
// allow-list.
func (h *RoutesHandler) CheckAccess(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "path query parameter is required"})
		return
	}

	profile := actorProfile(c)
	c.JSON(http.StatusOK, gin.H{
		"path":    path,
		"allowed": permissions.CanAccessRoute(profile, path),
	})
}
