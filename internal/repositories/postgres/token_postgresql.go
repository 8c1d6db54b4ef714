package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

type activationTokenRepository struct {
	base
}

func NewActivationTokenRepository(db *gorm.DB) repositories.ActivationTokenRepository {
	return &activationTokenRepository{base{db: db}}
}

func (r *activationTokenRepository) Create(ctx context.Context, tx *gorm.DB, token *models.ActivationToken) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(token).Error; err != nil {
		return r.handleDBError(err, "create activation token")
	}
	return nil
}

func (r *activationTokenRepository) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.ActivationToken, error) {
	db := r.getDB(tx)
	var t models.ActivationToken

	if err := db.WithContext(ctx).
		Where("token = ?", token).
		First(&t).Error; err != nil {
		return nil, r.handleDBError(err, "get activation token")
	}
	return &t, nil
}

func (r *activationTokenRepository) Delete(ctx context.Context, tx *gorm.DB, token string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.ActivationToken{}).Error; err != nil {
		return r.handleDBError(err, "delete activation token")
	}
	return nil
}

func (r *activationTokenRepository) DeleteForUser(ctx context.Context, tx *gorm.DB, userID string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ActivationToken{}).Error; err != nil {
		return r.handleDBError(err, "delete activation tokens for user")
	}
	return nil
}

type passwordResetTokenRepository struct {
	base
}

func NewPasswordResetTokenRepository(db *gorm.DB) repositories.PasswordResetTokenRepository {
	return &passwordResetTokenRepository{base{db: db}}
}

func (r *passwordResetTokenRepository) Create(ctx context.Context, tx *gorm.DB, token *models.PasswordResetToken) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(token).Error; err != nil {
		return r.handleDBError(err, "create password reset token")
	}
	return nil
}

func (r *passwordResetTokenRepository) GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.PasswordResetToken, error) {
	db := r.getDB(tx)
	var t models.PasswordResetToken

	if err := db.WithContext(ctx).
		Where("token = ?", token).
		First(&t).Error; err != nil {
		return nil, r.handleDBError(err, "get password reset token")
	}
	return &t, nil
}

func (r *passwordResetTokenRepository) Delete(ctx context.Context, tx *gorm.DB, token string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.PasswordResetToken{}).Error; err != nil {
		return r.handleDBError(err, "delete password reset token")
	}
	return nil
}

func (r *passwordResetTokenRepository) DeleteForUser(ctx context.Context, tx *gorm.DB, userID string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.PasswordResetToken{}).Error; err != nil {
		return r.handleDBError(err, "delete password reset tokens for user")
	}
	return nil
}
