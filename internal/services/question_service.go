package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/prepdesk/examprep-service/internal/events"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/permissions"
	"github.com/prepdesk/examprep-service/internal/repositories"
	"github.com/prepdesk/examprep-service/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, actor *models.UserProfile) (*QuestionResponse, error) {
	if !permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpCreate) {
		return nil, NewPermissionError(actorID(actor), "questions", "create", "role lacks create permission")
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

	question := &models.Question{
		QuestionText: req.Text,
		Type:         models.DefaultQuestionType,
		Difficulty:   models.DefaultDifficulty,
		SubjectID:    req.SubjectID,
		CreatedBy:    actor.UserID,
	}
	if req.Type != nil {
		question.Type = *req.Type
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}

	encodeAnswer(question, req.CorrectAnswer)

	var err error
	if question.Options, err = marshalStringList(req.Options); err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}
	if question.Tags, err = marshalStringList(req.Tags); err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}
	if question.MediaURLs, err = marshalStringList(req.MediaURLs); err != nil {
		return nil, fmt.Errorf("marshal media urls: %w", err)
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}

	s.publishQuestionEvent(ctx, events.EventQuestionCreated, question, actor)
	s.logger.Info("question created", "question_id", question.ID, "creator_id", actor.UserID)

	return s.toResponse(question, actor), nil
}

// GetByID returns nil without error when the actor lacks view permission.
func (s *questionService) GetByID(ctx context.Context, id uint, actor *models.UserProfile) (*QuestionResponse, error) {
	if !permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpView) {
		return nil, nil
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return s.toResponse(question, actor), nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest, actor *models.UserProfile) (*QuestionResponse, error) {
	if !permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpUpdate) {
		return nil, NewPermissionError(actorID(actor), "questions", "update", "role lacks update permission")
	}

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	if req.Text != nil {
		question.QuestionText = *req.Text
	}
	if req.Type != nil {
		question.Type = *req.Type
	}
	if req.Difficulty != nil {
		question.Difficulty = *req.Difficulty
	}
	if req.SubjectID != nil {
		if _, err := s.repo.Subject().GetByID(ctx, nil, *req.SubjectID); err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSubjectNotFound
			}
			return nil, fmt.Errorf("check subject: %w", err)
		}
		question.SubjectID = req.SubjectID
	}
	if req.CorrectAnswer != nil {
		encodeAnswer(question, *req.CorrectAnswer)
	}
	if req.Options != nil {
		if question.Options, err = marshalStringList(req.Options); err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
	}
	if req.Tags != nil {
		if question.Tags, err = marshalStringList(req.Tags); err != nil {
			return nil, fmt.Errorf("marshal tags: %w", err)
		}
	}
	if req.MediaURLs != nil {
		if question.MediaURLs, err = marshalStringList(req.MediaURLs); err != nil {
			return nil, fmt.Errorf("marshal media urls: %w", err)
		}
	}

	if err := s.repo.Question().Update(ctx, nil, question); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("update question: %w", err)
	}

	s.publishQuestionEvent(ctx, events.EventQuestionUpdated, question, actor)
	s.logger.Info("question updated", "question_id", question.ID, "actor_id", actor.UserID)

	return s.toResponse(question, actor), nil
}

func (s *questionService) Delete(ctx context.Context, id uint, actor *models.UserProfile) error {
	if !permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpDelete) {
		return NewPermissionError(actorID(actor), "questions", "delete", "role lacks delete permission")
	}

	question, err := s.repo.Question().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("get question: %w", err)
	}

	if err := s.repo.Question().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}

	s.publishQuestionEvent(ctx, events.EventQuestionDeleted, question, actor)
	s.logger.Info("question deleted", "question_id", id, "actor_id", actor.UserID)
	return nil
}

// List returns an empty page without error when the actor lacks view
// permission.
func (s *questionService) List(ctx context.Context, params QuestionListParams, actor *models.UserProfile) (*QuestionListResponse, error) {
	flags := permissions.FlagsFor(actor, permissions.ResourceQuestions)
	if !flags.CanView {
		return &QuestionListResponse{Questions: []*QuestionResponse{}, Flags: flags}, nil
	}

	page, size := normalizePage(params.Page, params.Size)
	filters := repositories.QuestionFilters{
		SubjectID:  params.SubjectID,
		Type:       params.Type,
		Difficulty: params.Difficulty,
		CreatedBy:  params.CreatedBy,
		Limit:      size,
		Offset:     (page - 1) * size,
		SortBy:     params.SortBy,
		SortOrder:  params.SortOrder,
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, s.toResponse(q, actor))
	}

	return &QuestionListResponse{
		Questions: responses,
		Total:     total,
		Page:      page,
		Size:      size,
		Flags:     flags,
	}, nil
}

// ===== HELPERS =====

// encodeAnswer stores a list answer as its JSON encoding and records the
// format so decodeAnswer can reverse it exactly.
func encodeAnswer(q *models.Question, answer models.FlexAnswer) {
	if answer.IsList {
		encoded, err := json.Marshal(answer.Values)
		if err != nil {
			// []string cannot fail to marshal.
			panic(err)
		}
		q.CorrectAnswer = string(encoded)
		q.AnswerFormat = models.AnswerFormatList
		return
	}
	q.CorrectAnswer = answer.Value
	q.AnswerFormat = models.AnswerFormatString
}

// decodeAnswer is the inverse of encodeAnswer.
func decodeAnswer(q *models.Question) models.FlexAnswer {
	if q.AnswerFormat == models.AnswerFormatList {
		var values []string
		if err := json.Unmarshal([]byte(q.CorrectAnswer), &values); err == nil {
			return models.FlexAnswer{Values: values, IsList: true}
		}
		// Malformed stored list, fall through and surface the raw string.
	}
	return models.FlexAnswer{Value: q.CorrectAnswer}
}

func (s *questionService) toResponse(q *models.Question, actor *models.UserProfile) *QuestionResponse {
	return &QuestionResponse{
		Question:      q,
		CorrectAnswer: decodeAnswer(q),
		CanEdit:       permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpUpdate),
		CanDelete:     permissions.HasPermission(actor, permissions.ResourceQuestions, permissions.OpDelete),
	}
}

func (s *questionService) publishQuestionEvent(ctx context.Context, eventType string, q *models.Question, actor *models.UserProfile) {
	err := s.publisher.Publish(ctx, events.NewEvent(eventType, events.QuestionEvent{
		QuestionID: q.ID,
		SubjectID:  q.SubjectID,
		ActorID:    actor.UserID,
	}))
	if err != nil {
		s.logger.Error("publish question event failed", "error", err, "event_type", eventType, "question_id", q.ID)
	}
}

func marshalStringList(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	encoded, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(encoded), nil
}

func unmarshalStringList(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return page, size
}

func actorID(actor *models.UserProfile) string {
	if actor == nil {
		return "anonymous"
	}
	return actor.UserID
}
