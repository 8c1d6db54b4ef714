package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/config"
	"github.com/prepdesk/examprep-service/internal/events"
	"github.com/prepdesk/examprep-service/internal/mailer"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/permissions"
	"github.com/prepdesk/examprep-service/internal/repositories"
	"github.com/prepdesk/examprep-service/internal/validator"
)

type authService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	mailer    mailer.Mailer
	publisher events.EventPublisher
	cfg       *config.Config
}

func NewAuthService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, m mailer.Mailer, publisher events.EventPublisher, cfg *config.Config) AuthService {
	return &authService{
		repo:      repo,
		logger:    logger,
		validator: v,
		mailer:    m,
		publisher: publisher,
		cfg:       cfg,
	}
}

// ===== SIGNUP =====

func (s *authService) Signup(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	taken, err := s.repo.User().ExistsByEmailOrUsername(ctx, nil, req.Email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: string(hash),
	}
	profile := &models.UserProfile{
		UserID:   user.ID,
		FullName: req.Name,
		Role:     models.RoleStudent,
		IsActive: false,
	}
	token := &models.ActivationToken{
		Token:     generateToken(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(models.ActivationTokenTTL),
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.User().Create(ctx, tx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.repo.Profile().Create(ctx, tx, profile); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		if err := s.repo.ActivationToken().Create(ctx, tx, token); err != nil {
			return fmt.Errorf("create activation token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendActivationEmail(ctx, user, profile.FullName, token.Token)

	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventUserSignedUp, events.UserEvent{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	})); err != nil {
		s.logger.Error("publish signup event failed", "error", err, "user_id", user.ID)
	}

	s.logger.Info("user signed up", "user_id", user.ID, "email", user.Email)

	return &SignupResponse{
		UserID:  user.ID,
		Email:   user.Email,
		Message: "account created, check your email to activate it",
	}, nil
}

func (s *authService) sendActivationEmail(ctx context.Context, user *models.User, name, token string) {
	url := fmt.Sprintf("%s/auth/activate?token=%s", s.cfg.FrontendBaseURL, token)
	msg, err := mailer.RenderActivation(user.Email, mailer.ActivationData{
		Name:          name,
		ActivationURL: url,
	})
	if err != nil {
		s.logger.Error("render activation email failed", "error", err, "user_id", user.ID)
		return
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("send activation email failed", "error", err, "user_id", user.ID)
	}
}

// ===== LOGIN =====

// Login checks, in order: account exists, account active, password matches.
// The active check runs before the password check so a correct password
// against a dormant account still reports "account not active".
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*models.SessionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByEmail(ctx, nil, req.Email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	profile, err := s.repo.Profile().GetByUserID(ctx, nil, user.ID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("lookup profile: %w", err)
	}
	if !profile.IsActive {
		return nil, ErrAccountNotActive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.TTLHours) * time.Hour)
	accessToken, err := s.signJWT(user, profile, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return &models.SessionResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		User:        user,
		Profile:     profile,
	}, nil
}

func (s *authService) signJWT(user *models.User, profile *models.UserProfile, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(profile.Role),
		"iat":   time.Now().Unix(),
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWT.Secret))
}

// Logout acknowledges a client-side session discard. Sessions are stateless
// bearer tokens, so there is no server row to clear; the call exists so the
// client has a single endpoint to finish a session against, and the event is
// logged.
func (s *authService) Logout(ctx context.Context, userID string) error {
	if userID != "" {
		s.logger.Info("user logged out", "user_id", userID)
	}
	return nil
}

// ===== ACTIVATION =====

func (s *authService) Activate(ctx context.Context, tokenStr string) error {
	if tokenStr == "" {
		return ErrTokenInvalid
	}

	token, err := s.repo.ActivationToken().GetByToken(ctx, nil, tokenStr)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("lookup activation token: %w", err)
	}

	if token.Expired(time.Now()) {
		// Drop the stale row; the user has to sign up again or request a
		// fresh link.
		if err := s.repo.ActivationToken().Delete(ctx, nil, token.Token); err != nil {
			s.logger.Error("delete expired activation token failed", "error", err)
		}
		return ErrTokenInvalid
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Profile().SetActive(ctx, tx, token.UserID, true); err != nil {
			return fmt.Errorf("activate profile: %w", err)
		}
		if err := s.repo.User().ConfirmEmail(ctx, tx, token.UserID); err != nil {
			return fmt.Errorf("confirm email: %w", err)
		}
		if err := s.repo.ActivationToken().Delete(ctx, tx, token.Token); err != nil {
			return fmt.Errorf("consume activation token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventUserActivated, events.UserEvent{
		UserID: token.UserID,
	})); err != nil {
		s.logger.Error("publish activation event failed", "error", err, "user_id", token.UserID)
	}

	s.logger.Info("account activated", "user_id", token.UserID)
	return nil
}

// ===== PASSWORD RESET =====

// ForgotPassword never discloses whether the email is registered. Unknown
// addresses return success without sending anything.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repo.User().GetByEmail(ctx, nil, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	profile, err := s.repo.Profile().GetByUserID(ctx, nil, user.ID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return fmt.Errorf("lookup profile: %w", err)
	}
	if profile == nil || !profile.IsActive {
		// Same generic outcome as an unknown address.
		s.logger.Info("password reset requested for inactive account", "user_id", user.ID)
		return nil
	}

	token := &models.PasswordResetToken{
		Token:     generateToken(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(models.PasswordResetTokenTTL),
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		// One live token per user.
		if err := s.repo.PasswordResetToken().DeleteForUser(ctx, tx, user.ID); err != nil {
			return fmt.Errorf("drop previous reset tokens: %w", err)
		}
		if err := s.repo.PasswordResetToken().Create(ctx, tx, token); err != nil {
			return fmt.Errorf("create reset token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	name := profile.FullName
	if name == "" {
		name = user.Username
	}
	url := fmt.Sprintf("%s/auth/reset-password?token=%s", s.cfg.FrontendBaseURL, token.Token)
	msg, err := mailer.RenderPasswordReset(user.Email, mailer.PasswordResetData{
		Name:     name,
		ResetURL: url,
	})
	if err != nil {
		s.logger.Error("render reset email failed", "error", err, "user_id", user.ID)
		return nil
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Error("send reset email failed", "error", err, "user_id", user.ID)
	}

	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventPasswordResetSent, events.UserEvent{
		UserID: user.ID,
		Email:  user.Email,
	})); err != nil {
		s.logger.Error("publish reset event failed", "error", err, "user_id", user.ID)
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, tokenStr, newPassword string) error {
	if err := s.validator.Validate(&ResetPasswordRequest{Token: tokenStr, Password: newPassword}); err != nil {
		return err
	}

	token, err := s.repo.PasswordResetToken().GetByToken(ctx, nil, tokenStr)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if token.Expired(time.Now()) {
		if err := s.repo.PasswordResetToken().Delete(ctx, nil, token.Token); err != nil {
			s.logger.Error("delete expired reset token failed", "error", err)
		}
		return ErrTokenInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.User().UpdatePassword(ctx, tx, token.UserID, string(hash)); err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if err := s.repo.PasswordResetToken().DeleteForUser(ctx, tx, token.UserID); err != nil {
			return fmt.Errorf("consume reset token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.NewEvent(events.EventPasswordChanged, events.UserEvent{
		UserID: token.UserID,
	})); err != nil {
		s.logger.Error("publish password change event failed", "error", err, "user_id", token.UserID)
	}

	s.logger.Info("password reset", "user_id", token.UserID)
	return nil
}

// ===== SESSION DATA =====

func (s *authService) FetchUserData(ctx context.Context, userID string) (*UserDataResponse, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	profile, err := s.repo.Profile().GetByUserID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("lookup profile: %w", err)
	}

	return &UserDataResponse{
		User:      user,
		Profile:   profile,
		Questions: permissions.FlagsFor(profile, permissions.ResourceQuestions),
		Exams:     permissions.FlagsFor(profile, permissions.ResourceExams),
		Users:     permissions.FlagsFor(profile, permissions.ResourceUsers),
	}, nil
}

// ===== BOOTSTRAP =====

// CreateAdmin provisions the configured administrator account. Safe to call
// on every startup.
func (s *authService) CreateAdmin(ctx context.Context) error {
	if s.cfg.AdminEmail == "" || s.cfg.AdminPassword == "" {
		s.logger.Warn("admin bootstrap skipped, credentials not configured")
		return nil
	}

	existing, err := s.repo.User().GetByEmail(ctx, nil, s.cfg.AdminEmail)
	if err == nil {
		return s.repairAdmin(ctx, existing)
	}
	if !repositories.IsNotFoundError(err) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	user := &models.User{
		ID:             uuid.New().String(),
		Email:          s.cfg.AdminEmail,
		Username:       s.cfg.AdminUsername,
		PasswordHash:   string(hash),
		EmailConfirmed: true,
	}
	profile := &models.UserProfile{
		UserID:   user.ID,
		FullName: s.cfg.AdminName,
		Role:     models.RoleAdmin,
		IsActive: true,
	}

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.User().Create(ctx, tx, user); err != nil {
			return fmt.Errorf("create admin user: %w", err)
		}
		if err := s.repo.Profile().Create(ctx, tx, profile); err != nil {
			return fmt.Errorf("create admin profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("admin account created", "user_id", user.ID)
	return nil
}

// repairAdmin brings an existing admin account back to a usable state:
// missing profile rows are recreated and an inactive profile is reactivated.
func (s *authService) repairAdmin(ctx context.Context, user *models.User) error {
	profile, err := s.repo.Profile().GetByUserID(ctx, nil, user.ID)
	if err != nil {
		if !repositories.IsNotFoundError(err) {
			return fmt.Errorf("lookup admin profile: %w", err)
		}
		profile = &models.UserProfile{
			UserID:   user.ID,
			FullName: s.cfg.AdminName,
			Role:     models.RoleAdmin,
			IsActive: true,
		}
		if err := s.repo.Profile().Create(ctx, nil, profile); err != nil {
			return fmt.Errorf("create admin profile: %w", err)
		}
		s.logger.Info("admin profile recreated", "user_id", user.ID)
		return nil
	}

	if !profile.IsActive {
		if err := s.repo.Profile().SetActive(ctx, nil, user.ID, true); err != nil {
			return fmt.Errorf("reactivate admin profile: %w", err)
		}
		s.logger.Info("admin profile reactivated", "user_id", user.ID)
	}
	return nil
}

// generateToken returns a 64-character hex string from a CSPRNG.
func generateToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
