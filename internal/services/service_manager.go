package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prepdesk/examprep-service/internal/config"
	"github.com/prepdesk/examprep-service/internal/events"
	"github.com/prepdesk/examprep-service/internal/mailer"
	"github.com/prepdesk/examprep-service/internal/repositories"
	"github.com/prepdesk/examprep-service/internal/validator"
)

// serviceManager implements ServiceManager.
type serviceManager struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	mailer    mailer.Mailer
	publisher events.EventPublisher
	cfg       *config.Config

	authService         AuthService
	questionService     QuestionService
	taxonomyService     TaxonomyService
	userService         UserService
	importExportService ImportExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, m mailer.Mailer, publisher events.EventPublisher, cfg *config.Config) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: v,
		mailer:    m,
		publisher: publisher,
		cfg:       cfg,
	}
}

// Initialize builds every service instance. Must run before any getter.
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("initializing services")

	sm.authService = NewAuthService(sm.repo, sm.logger, sm.validator, sm.mailer, sm.publisher, sm.cfg)
	sm.questionService = NewQuestionService(sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.taxonomyService = NewTaxonomyService(sm.repo, sm.logger, sm.validator, sm.publisher)
	sm.userService = NewUserService(sm.repo, sm.logger, sm.validator)
	sm.importExportService = NewImportExportService(sm.repo, sm.logger, sm.validator, sm.questionService)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("services initialized")
	return nil
}

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("shutting down services")

	if err := sm.publisher.Close(); err != nil {
		sm.logger.Error("close event publisher failed", "error", err)
	}

	sm.shutdown = true
	return nil
}

// ===== SERVICE GETTERS =====

func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.authService
}

func (sm *serviceManager) Question() QuestionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.questionService
}

func (sm *serviceManager) Taxonomy() TaxonomyService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.taxonomyService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.userService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.importExportService
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}
