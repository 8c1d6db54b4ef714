package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/permissions"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

// JWTAuthMiddleware authenticates requests with a bearer token and loads the
// account plus its profile into the request context.
type JWTAuthMiddleware struct {
	secret   []byte
	userRepo repositories.UserRepository
	profiles repositories.ProfileRepository
}

func NewJWTAuthMiddleware(secret string, userRepo repositories.UserRepository, profiles repositories.ProfileRepository) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		secret:   []byte(secret),
		userRepo: userRepo,
		profiles: profiles,
	}
}

// AuthMiddleware rejects requests without a valid token.
func (am *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := am.authenticate(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authentication required",
			})
			return
		}

		if !am.loadAccount(c, userID) {
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware loads the account when a valid token is present and
// lets anonymous requests through untouched.
func (am *JWTAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := am.authenticate(c)
		if err == nil {
			am.loadAccountSoft(c, userID)
		}
		c.Next()
	}
}

// RequireRoleMiddleware enforces a minimum rank. Must run after
// AuthMiddleware.
func (am *JWTAuthMiddleware) RequireRoleMiddleware(required models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile := actorProfile(c)
		if !permissions.HasRole(profile, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Insufficient role",
				Details: map[string]string{"required_role": string(required)},
			})
			return
		}
		c.Next()
	}
}

func (am *JWTAuthMiddleware) authenticate(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", fmt.Errorf("missing bearer token")
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil || !token.Valid {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("unexpected claims type")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("missing subject claim")
	}
	return sub, nil
}

// loadAccount resolves user and profile rows and aborts the request when the
// account is unusable. Returns false on abort.
func (am *JWTAuthMiddleware) loadAccount(c *gin.Context, userID string) bool {
	ctx := c.Request.Context()

	user, err := am.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Account no longer exists",
		})
		return false
	}

	profile, err := am.profiles.GetByUserID(ctx, nil, userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Profile not found",
		})
		return false
	}
	if !profile.IsActive {
		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Message: "Account not active",
		})
		return false
	}

	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Set("user_role", profile.Role)
	c.Set("user_profile", profile)
	return true
}

func (am *JWTAuthMiddleware) loadAccountSoft(c *gin.Context, userID string) {
	ctx := c.Request.Context()

	user, err := am.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		return
	}
	profile, err := am.profiles.GetByUserID(ctx, nil, userID)
	if err != nil || !profile.IsActive {
		return
	}

	c.Set("user_id", user.ID)
	c.Set("user", user)
	c.Set("user_role", profile.Role)
	c.Set("user_profile", profile)
}
