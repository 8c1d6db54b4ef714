package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/permissions"
	"github.com/prepdesk/examprep-service/internal/repositories"
	"github.com/prepdesk/examprep-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	profile, err := s.repo.Profile().GetByUserID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID string, req *models.ProfileUpdateRequest) (*models.UserProfile, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	profile, err := s.repo.Profile().GetByUserID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}

	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.AvatarURL != nil {
		profile.AvatarURL = req.AvatarURL
	}

	if err := s.repo.Profile().Update(ctx, nil, profile); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.logger.Info("profile updated", "user_id", userID)
	return profile, nil
}

// List is restricted to users with the users:view permission, which only
// admins hold by default.
func (s *userService) List(ctx context.Context, params UserListParams, actor *models.UserProfile) (*UserListResponse, error) {
	if !permissions.HasPermission(actor, permissions.ResourceUsers, permissions.OpView) {
		return nil, NewPermissionError(actorID(actor), "users", "view", "role lacks view permission")
	}

	page, size := normalizePage(params.Page, params.Size)
	filters := repositories.UserFilters{
		Query:  params.Query,
		Role:   params.Role,
		Limit:  size,
		Offset: (page - 1) * size,
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &UserListResponse{
		Users: users,
		Total: total,
		Page:  page,
		Size:  size,
	}, nil
}

func (s *userService) ChangeRole(ctx context.Context, userID string, role models.UserRole, actor *models.UserProfile) error {
	if !permissions.HasPermission(actor, permissions.ResourceUsers, permissions.OpUpdate) {
		return NewPermissionError(actorID(actor), "users", "update", "role lacks update permission")
	}
	if !role.Valid() {
		return ValidationErrors{*NewValidationError("role", "unknown role", string(role))}
	}

	if err := s.repo.Profile().SetRole(ctx, nil, userID, role); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("change role: %w", err)
	}

	s.logger.Info("role changed", "user_id", userID, "new_role", role, "actor_id", actor.UserID)
	return nil
}

func (s *userService) SetActive(ctx context.Context, userID string, active bool, actor *models.UserProfile) error {
	if !permissions.HasPermission(actor, permissions.ResourceUsers, permissions.OpUpdate) {
		return NewPermissionError(actorID(actor), "users", "update", "role lacks update permission")
	}

	if err := s.repo.Profile().SetActive(ctx, nil, userID, active); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("set active: %w", err)
	}

	s.logger.Info("account state changed", "user_id", userID, "active", active, "actor_id", actor.UserID)
	return nil
}
