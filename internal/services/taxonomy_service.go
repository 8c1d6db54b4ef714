package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prepdesk/examprep-service/internal/events"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/permissions"
	"github.com/prepdesk/examprep-service/internal/repositories"
	"github.com/prepdesk/examprep-service/internal/validator"
)

type taxonomyService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewTaxonomyService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) TaxonomyService {
	return &taxonomyService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// ===== EXAM TYPES =====

func (s *taxonomyService) CreateExamType(ctx context.Context, req *models.ExamTypeCreateRequest, actor *models.UserProfile) (*models.ExamType, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpCreate) {
		return nil, NewPermissionError(actorID(actor), "exams", "create", "role lacks create permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExamType().ExistsByName(ctx, nil, req.Name)
	if err != nil {
		return nil, fmt.Errorf("check exam type name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateExamType
	}

	examType := &models.ExamType{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.ExamType().Create(ctx, nil, examType); err != nil {
		return nil, fmt.Errorf("create exam type: %w", err)
	}

	s.logger.Info("exam type created", "exam_type_id", examType.ID, "actor_id", actor.UserID)
	return examType, nil
}

func (s *taxonomyService) UpdateExamType(ctx context.Context, id uint, req *models.ExamTypeUpdateRequest, actor *models.UserProfile) (*models.ExamType, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpUpdate) {
		return nil, NewPermissionError(actorID(actor), "exams", "update", "role lacks update permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	examType, err := s.repo.ExamType().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamTypeNotFound
		}
		return nil, fmt.Errorf("get exam type: %w", err)
	}

	if req.Name != nil && *req.Name != examType.Name {
		exists, err := s.repo.ExamType().ExistsByName(ctx, nil, *req.Name)
		if err != nil {
			return nil, fmt.Errorf("check exam type name: %w", err)
		}
		if exists {
			return nil, ErrDuplicateExamType
		}
		examType.Name = *req.Name
	}
	if req.Description != nil {
		examType.Description = req.Description
	}

	if err := s.repo.ExamType().Update(ctx, nil, examType); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamTypeNotFound
		}
		return nil, fmt.Errorf("update exam type: %w", err)
	}
	return examType, nil
}

func (s *taxonomyService) DeleteExamType(ctx context.Context, id uint, actor *models.UserProfile) error {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpDelete) {
		return NewPermissionError(actorID(actor), "exams", "delete", "role lacks delete permission")
	}
	if err := s.repo.ExamType().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamTypeNotFound
		}
		return fmt.Errorf("delete exam type: %w", err)
	}
	s.logger.Info("exam type deleted", "exam_type_id", id, "actor_id", actor.UserID)
	return nil
}

// ListExamTypes returns an empty list without error when the actor lacks
// view permission.
func (s *taxonomyService) ListExamTypes(ctx context.Context, actor *models.UserProfile) ([]*models.ExamType, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpView) {
		return []*models.ExamType{}, nil
	}
	types, err := s.repo.ExamType().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list exam types: %w", err)
	}
	return types, nil
}

// ===== EXAM YEARS =====

func (s *taxonomyService) CreateExamYear(ctx context.Context, req *models.ExamYearCreateRequest, actor *models.UserProfile) (*models.ExamYear, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpCreate) {
		return nil, NewPermissionError(actorID(actor), "exams", "create", "role lacks create permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.ExamType().GetByID(ctx, nil, req.ExamTypeID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamTypeNotFound
		}
		return nil, fmt.Errorf("check exam type: %w", err)
	}

	exists, err := s.repo.ExamYear().ExistsByTypeAndYear(ctx, nil, req.ExamTypeID, req.Year)
	if err != nil {
		return nil, fmt.Errorf("check exam year: %w", err)
	}
	if exists {
		return nil, ErrDuplicateExamYear
	}

	year := &models.ExamYear{
		ExamTypeID: req.ExamTypeID,
		Year:       req.Year,
		CreatedBy:  actor.UserID,
	}
	if err := s.repo.ExamYear().Create(ctx, nil, year); err != nil {
		return nil, fmt.Errorf("create exam year: %w", err)
	}

	s.logger.Info("exam year created", "exam_year_id", year.ID, "actor_id", actor.UserID)
	return year, nil
}

func (s *taxonomyService) UpdateExamYear(ctx context.Context, id uint, req *models.ExamYearUpdateRequest, actor *models.UserProfile) (*models.ExamYear, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpUpdate) {
		return nil, NewPermissionError(actorID(actor), "exams", "update", "role lacks update permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	year, err := s.repo.ExamYear().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamYearNotFound
		}
		return nil, fmt.Errorf("get exam year: %w", err)
	}

	if req.Year != nil && *req.Year != year.Year {
		exists, err := s.repo.ExamYear().ExistsByTypeAndYear(ctx, nil, year.ExamTypeID, *req.Year)
		if err != nil {
			return nil, fmt.Errorf("check exam year: %w", err)
		}
		if exists {
			return nil, ErrDuplicateExamYear
		}
		year.Year = *req.Year
	}

	if err := s.repo.ExamYear().Update(ctx, nil, year); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamYearNotFound
		}
		return nil, fmt.Errorf("update exam year: %w", err)
	}
	return year, nil
}

func (s *taxonomyService) DeleteExamYear(ctx context.Context, id uint, actor *models.UserProfile) error {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpDelete) {
		return NewPermissionError(actorID(actor), "exams", "delete", "role lacks delete permission")
	}
	if err := s.repo.ExamYear().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamYearNotFound
		}
		return fmt.Errorf("delete exam year: %w", err)
	}
	return nil
}

func (s *taxonomyService) ListExamYears(ctx context.Context, examTypeID uint, actor *models.UserProfile) ([]*models.ExamYear, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpView) {
		return []*models.ExamYear{}, nil
	}
	years, err := s.repo.ExamYear().ListByExamType(ctx, nil, examTypeID)
	if err != nil {
		return nil, fmt.Errorf("list exam years: %w", err)
	}
	return years, nil
}

// ===== SUBJECTS =====

func (s *taxonomyService) CreateSubject(ctx context.Context, req *models.SubjectCreateRequest, actor *models.UserProfile) (*models.Subject, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpCreate) {
		return nil, NewPermissionError(actorID(actor), "exams", "create", "role lacks create permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.repo.ExamYear().GetByID(ctx, nil, req.ExamYearID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamYearNotFound
		}
		return nil, fmt.Errorf("check exam year: %w", err)
	}

	exists, err := s.repo.Subject().ExistsByYearAndName(ctx, nil, req.ExamYearID, req.Name)
	if err != nil {
		return nil, fmt.Errorf("check subject name: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSubject
	}

	subject := &models.Subject{
		ExamYearID: req.ExamYearID,
		Name:       req.Name,
		CreatedBy:  actor.UserID,
	}
	if err := s.repo.Subject().Create(ctx, nil, subject); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}

	s.logger.Info("subject created", "subject_id", subject.ID, "actor_id", actor.UserID)
	return subject, nil
}

func (s *taxonomyService) UpdateSubject(ctx context.Context, id uint, req *models.SubjectUpdateRequest, actor *models.UserProfile) (*models.Subject, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpUpdate) {
		return nil, NewPermissionError(actorID(actor), "exams", "update", "role lacks update permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	subject, err := s.repo.Subject().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("get subject: %w", err)
	}

	if req.Name != nil && *req.Name != subject.Name {
		exists, err := s.repo.Subject().ExistsByYearAndName(ctx, nil, subject.ExamYearID, *req.Name)
		if err != nil {
			return nil, fmt.Errorf("check subject name: %w", err)
		}
		if exists {
			return nil, ErrDuplicateSubject
		}
		subject.Name = *req.Name
	}

	if err := s.repo.Subject().Update(ctx, nil, subject); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("update subject: %w", err)
	}
	return subject, nil
}

func (s *taxonomyService) DeleteSubject(ctx context.Context, id uint, actor *models.UserProfile) error {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpDelete) {
		return NewPermissionError(actorID(actor), "exams", "delete", "role lacks delete permission")
	}
	if err := s.repo.Subject().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrSubjectNotFound
		}
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

func (s *taxonomyService) ListSubjects(ctx context.Context, examYearID uint, actor *models.UserProfile) ([]*models.Subject, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpView) {
		return []*models.Subject{}, nil
	}
	subjects, err := s.repo.Subject().ListByExamYear(ctx, nil, examYearID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// ===== EXAMS =====

func (s *taxonomyService) CreateExam(ctx context.Context, req *models.ExamCreateRequest, actor *models.UserProfile) (*ExamResponse, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpCreate) {
		return nil, NewPermissionError(actorID(actor), "exams", "create", "role lacks create permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.SubjectID != nil {
		if _, err := s.repo.Subject().GetByID(ctx, nil, *req.SubjectID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSubjectNotFound
			}
			return nil, fmt.Errorf("check subject: %w", err)
		}
	}

	exam := &models.Exam{
		Title:       req.Title,
		Description: req.Description,
		SubjectID:   req.SubjectID,
		CreatedBy:   actor.UserID,
	}
	if err := s.repo.Exam().Create(ctx, nil, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.publishExamEvent(ctx, exam, actor)
	s.logger.Info("exam created", "exam_id", exam.ID, "actor_id", actor.UserID)
	return s.toExamResponse(exam, actor), nil
}

// GetExam returns nil without error when the actor lacks view permission.
func (s *taxonomyService) GetExam(ctx context.Context, id uint, actor *models.UserProfile) (*ExamResponse, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpView) {
		return nil, nil
	}
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return s.toExamResponse(exam, actor), nil
}

func (s *taxonomyService) UpdateExam(ctx context.Context, id uint, req *models.ExamUpdateRequest, actor *models.UserProfile) (*ExamResponse, error) {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpUpdate) {
		return nil, NewPermissionError(actorID(actor), "exams", "update", "role lacks update permission")
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	if req.Title != nil {
		exam.Title = *req.Title
	}
	if req.Description != nil {
		exam.Description = req.Description
	}
	if req.SubjectID != nil {
		if _, err := s.repo.Subject().GetByID(ctx, nil, *req.SubjectID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSubjectNotFound
			}
			return nil, fmt.Errorf("check subject: %w", err)
		}
		exam.SubjectID = req.SubjectID
	}

	if err := s.repo.Exam().Update(ctx, nil, exam); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("update exam: %w", err)
	}
	return s.toExamResponse(exam, actor), nil
}

func (s *taxonomyService) DeleteExam(ctx context.Context, id uint, actor *models.UserProfile) error {
	if !permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpDelete) {
		return NewPermissionError(actorID(actor), "exams", "delete", "role lacks delete permission")
	}
	if err := s.repo.Exam().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}
	s.logger.Info("exam deleted", "exam_id", id, "actor_id", actor.UserID)
	return nil
}

// ListExams returns an empty page without error when the actor lacks view
// permission.
func (s *taxonomyService) ListExams(ctx context.Context, params ExamListParams, actor *models.UserProfile) (*ExamListResponse, error) {
	flags := permissions.FlagsFor(actor, permissions.ResourceExams)
	if !flags.CanView {
		return &ExamListResponse{Exams: []*ExamResponse{}, Flags: flags}, nil
	}

	page, size := normalizePage(params.Page, params.Size)
	filters := repositories.ExamFilters{
		SubjectID: params.SubjectID,
		CreatedBy: params.CreatedBy,
		Limit:     size,
		Offset:    (page - 1) * size,
	}

	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}

	responses := make([]*ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, s.toExamResponse(exam, actor))
	}

	return &ExamListResponse{
		Exams: responses,
		Total: total,
		Page:  page,
		Size:  size,
		Flags: flags,
	}, nil
}

// ===== HELPERS =====

func (s *taxonomyService) toExamResponse(exam *models.Exam, actor *models.UserProfile) *ExamResponse {
	return &ExamResponse{
		Exam:      exam,
		CanEdit:   permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpUpdate),
		CanDelete: permissions.HasPermission(actor, permissions.ResourceExams, permissions.OpDelete),
	}
}

func (s *taxonomyService) publishExamEvent(ctx context.Context, exam *models.Exam, actor *models.UserProfile) {
	err := s.publisher.Publish(ctx, events.NewEvent(events.EventExamCreated, events.ExamEvent{
		ExamID:    exam.ID,
		SubjectID: exam.SubjectID,
		ActorID:   actor.UserID,
	}))
	if err != nil {
		s.logger.Error("publish exam event failed", "error", err, "exam_id", exam.ID)
	}
}
