package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

const middlewareSecret = "middleware-test-secret"

type stubUserRepo struct {
	users map[string]*models.User
}

func (s *stubUserRepo) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	return nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	return nil, repositories.ErrNotFound
}

func (s *stubUserRepo) ExistsByEmailOrUsername(ctx context.Context, tx *gorm.DB, email, username string) (bool, error) {
	return false, nil
}

func (s *stubUserRepo) UpdatePassword(ctx context.Context, tx *gorm.DB, userID, passwordHash string) error {
	return nil
}

func (s *stubUserRepo) ConfirmEmail(ctx context.Context, tx *gorm.DB, userID string) error {
	return nil
}

func (s *stubUserRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	return nil, 0, nil
}

type stubProfileRepo struct {
	profiles map[string]*models.UserProfile
}

func (s *stubProfileRepo) Create(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error {
	return nil
}

func (s *stubProfileRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.UserProfile, error) {
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return nil, repositories.ErrNotFound
}

func (s *stubProfileRepo) Update(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error {
	return nil
}

func (s *stubProfileRepo) SetActive(ctx context.Context, tx *gorm.DB, userID string, active bool) error {
	return nil
}

func (s *stubProfileRepo) SetRole(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error {
	return nil
}

func signTestToken(t *testing.T, subject, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func middlewareFixture(role models.UserRole, active bool) *JWTAuthMiddleware {
	users := &stubUserRepo{users: map[string]*models.User{
		"user-1": {ID: "user-1", Email: "ada@example.com", Username: "ada1815"},
	}}
	profiles := &stubProfileRepo{profiles: map[string]*models.UserProfile{
		"user-1": {UserID: "user-1", FullName: "Ada Lovelace", Role: role, IsActive: active},
	}}
	return NewJWTAuthMiddleware(middlewareSecret, users, profiles)
}

func protectedRouter(am *JWTAuthMiddleware, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", am.AuthMiddleware())
	group.Use(extra...)
	group.GET("/secret", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"role":    c.MustGet("user_role"),
		})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing token rejected", func(t *testing.T) {
		router := protectedRouter(middlewareFixture(models.RoleStudent, true))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/secret", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		router := protectedRouter(middlewareFixture(models.RoleStudent, true))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with wrong secret rejected", func(t *testing.T) {
		router := protectedRouter(middlewareFixture(models.RoleStudent, true))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1", "some-other-secret"))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token loads the account", func(t *testing.T) {
		router := protectedRouter(middlewareFixture(models.RoleTeacher, true))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1", middlewareSecret))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "user-1")
		assert.Contains(t, w.Body.String(), "teacher")
	})

	t.Run("valid token for deleted account rejected", func(t *testing.T) {
		router := protectedRouter(middlewareFixture(models.RoleStudent, true))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "ghost-user", middlewareSecret))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("deactivated account gets 403", func(t *testing.T) {
		router := protectedRouter(middlewareFixture(models.RoleStudent, false))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1", middlewareSecret))
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestOptionalAuthMiddleware(t *testing.T) {
	am := middlewareFixture(models.RoleStudent, true)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/open", am.OptionalAuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id")})
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/open", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":""`)
	})

	t.Run("invalid token treated as anonymous", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set("Authorization", "Bearer bogus")
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":""`)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/open", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1", middlewareSecret))
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
	})
}

func TestRequireRoleMiddleware(t *testing.T) {
	request := func(role models.UserRole) *httptest.ResponseRecorder {
		am := middlewareFixture(role, true)
		router := protectedRouter(am, am.RequireRoleMiddleware(models.RoleAdmin))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/secret", nil)
		req.Header.Set("Authorization", "Bearer "+signTestToken(t, "user-1", middlewareSecret))
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("lower ranks blocked", func(t *testing.T) {
		for _, role := range []models.UserRole{models.RoleStudent, models.RoleTeacher, models.RoleExaminer} {
			assert.Equal(t, http.StatusForbidden, request(role).Code, "role %s", role)
		}
	})

	t.Run("admin admitted", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, request(models.RoleAdmin).Code)
	})
}
