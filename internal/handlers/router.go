package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prepdesk/examprep-service/internal/config"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/repositories"
	"github.com/prepdesk/examprep-service/internal/services"
	"github.com/prepdesk/examprep-service/internal/utils"
)

type HandlerManager struct {
	authHandler     *AuthHandler
	questionHandler *QuestionHandler
	taxonomyHandler *TaxonomyHandler
	userHandler     *UserHandler
	routesHandler   *RoutesHandler
	authMiddleware  *JWTAuthMiddleware

	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	repo repositories.Repository,
	logger utils.Logger,
	cfg *config.Config,
) *HandlerManager {
	return &HandlerManager{
		authHandler:     NewAuthHandler(serviceManager.Auth(), logger, cfg),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger),
		taxonomyHandler: NewTaxonomyHandler(serviceManager.Taxonomy(), logger),
		userHandler:     NewUserHandler(serviceManager.User(), logger),
		routesHandler:   NewRoutesHandler(logger),
		authMiddleware:  NewJWTAuthMiddleware(cfg.JWT.Secret, repo.User(), repo.Profile()),
		serviceManager:  serviceManager,
	}
}

// SetupRoutes wires every endpoint onto the router.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")

	// Public auth dispatcher: one handler, routed on method and trailing
	// segment.
	v1.Any("/auth/*action", hm.authHandler.Handle)

	// Read surface works for anonymous callers too; the permission matrix
	// turns their results into empty pages.
	public := v1.Group("")
	public.Use(hm.authMiddleware.OptionalAuthMiddleware())
	{
		public.GET("/questions", hm.questionHandler.ListQuestions)
		public.GET("/questions/:id", hm.questionHandler.GetQuestion)
		public.GET("/exam-types", hm.taxonomyHandler.ListExamTypes)
		public.GET("/exam-years", hm.taxonomyHandler.ListExamYears)
		public.GET("/subjects", hm.taxonomyHandler.ListSubjects)
		public.GET("/exams", hm.taxonomyHandler.ListExams)
		public.GET("/exams/:id", hm.taxonomyHandler.GetExam)
		public.GET("/routes/access", hm.routesHandler.CheckAccess)
	}

	authed := v1.Group("")
	authed.Use(hm.authMiddleware.AuthMiddleware())
	{
		authed.GET("/me", hm.authHandler.Me)
		authed.PUT("/me", hm.userHandler.UpdateMyProfile)
		authed.GET("/profile", hm.userHandler.GetMyProfile)
		authed.PUT("/profile", hm.userHandler.UpdateMyProfile)

		questions := authed.Group("/questions")
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("/export", hm.questionHandler.ExportQuestions)
		}

		examTypes := authed.Group("/exam-types")
		{
			examTypes.POST("", hm.taxonomyHandler.CreateExamType)
			examTypes.PUT("/:id", hm.taxonomyHandler.UpdateExamType)
			examTypes.DELETE("/:id", hm.taxonomyHandler.DeleteExamType)
		}

		examYears := authed.Group("/exam-years")
		{
			examYears.POST("", hm.taxonomyHandler.CreateExamYear)
			examYears.PUT("/:id", hm.taxonomyHandler.UpdateExamYear)
			examYears.DELETE("/:id", hm.taxonomyHandler.DeleteExamYear)
		}

		subjects := authed.Group("/subjects")
		{
			subjects.POST("", hm.taxonomyHandler.CreateSubject)
			subjects.PUT("/:id", hm.taxonomyHandler.UpdateSubject)
			subjects.DELETE("/:id", hm.taxonomyHandler.DeleteSubject)
		}

		exams := authed.Group("/exams")
		{
			exams.POST("", hm.taxonomyHandler.CreateExam)
			exams.PUT("/:id", hm.taxonomyHandler.UpdateExam)
			exams.DELETE("/:id", hm.taxonomyHandler.DeleteExam)
		}

		// User administration requires the top rank outright.
		users := authed.Group("/admin/users")
		users.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			users.GET("", hm.userHandler.ListUsers)
			users.PUT("/:id/role", hm.userHandler.ChangeRole)
			users.PUT("/:id/active", hm.userHandler.SetActive)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	status := http.StatusOK
	health := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "examprep-service",
	}

	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		health["status"] = "unhealthy"
		health["error"] = err.Error()
	}

	c.JSON(status, health)
}
