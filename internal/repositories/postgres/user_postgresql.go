package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/cache"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

type userRepository struct {
	base
}

func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &userRepository{base{db: db}}
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *models.User) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		return r.handleDBError(err, "create user")
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error; err != nil {
		return nil, r.handleDBError(err, "get user by id")
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).
		Where("email = ?", email).
		First(&user).Error; err != nil {
		return nil, r.handleDBError(err, "get user by email")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error) {
	db := r.getDB(tx)
	var user models.User

	if err := db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error; err != nil {
		return nil, r.handleDBError(err, "get user by username")
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, tx *gorm.DB, email, username string) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&count).Error; err != nil {
		return false, r.handleDBError(err, "check user uniqueness")
	}
	return count > 0, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, tx *gorm.DB, userID, passwordHash string) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return r.handleDBError(result.Error, "update password")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "update password")
	}
	return nil
}

func (r *userRepository) ConfirmEmail(ctx context.Context, tx *gorm.DB, userID string) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("email_confirmed", true).Error; err != nil {
		return r.handleDBError(err, "confirm email")
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.UserFilters) ([]*models.User, int64, error) {
	db := r.getDB(tx)
	var users []*models.User
	var total int64

	query := db.WithContext(ctx).Model(&models.User{}).
		Joins("LEFT JOIN user_profiles ON user_profiles.user_id = users.id")

	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("users.email ILIKE ? OR users.username ILIKE ? OR user_profiles.full_name ILIKE ?", like, like, like)
	}
	if filters.Role != nil {
		query = query.Where("user_profiles.role = ?", *filters.Role)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleDBError(err, "count users")
	}

	query = query.Preload("Profile")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("users.created_at DESC").Find(&users).Error; err != nil {
		return nil, 0, r.handleDBError(err, "list users")
	}
	return users, total, nil
}

// ===== PROFILE REPOSITORY =====

type profileRepository struct {
	base
	cm *cache.CacheManager
}

func NewProfileRepository(db *gorm.DB, cm *cache.CacheManager) repositories.ProfileRepository {
	return &profileRepository{base: base{db: db}, cm: cm}
}

func (r *profileRepository) Create(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(profile).Error; err != nil {
		return r.handleDBError(err, "create profile")
	}
	return nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.UserProfile, error) {
	// Bypass the cache inside transactions; the row may be mid-mutation.
	if tx == nil {
		var profile models.UserProfile
		err := r.cm.User.CacheOrExecute(ctx, "id:"+userID, &profile, cache.DefaultTTL, func() (interface{}, error) {
			return r.fetchByUserID(ctx, nil, userID)
		})
		if err == nil {
			return &profile, nil
		}
		if repositories.IsNotFoundError(err) {
			return nil, err
		}
		// Cache trouble falls through to a direct read.
	}
	return r.fetchByUserID(ctx, tx, userID)
}

func (r *profileRepository) fetchByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.UserProfile, error) {
	db := r.getDB(tx)
	var profile models.UserProfile

	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error; err != nil {
		return nil, r.handleDBError(err, "get profile by user id")
	}
	return &profile, nil
}

func (r *profileRepository) Update(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Save(profile).Error; err != nil {
		return r.handleDBError(err, "update profile")
	}
	cache.InvalidateUser(ctx, r.cm, profile.UserID)
	return nil
}

func (r *profileRepository) SetActive(ctx context.Context, tx *gorm.DB, userID string, active bool) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("is_active", active)
	if result.Error != nil {
		return r.handleDBError(result.Error, "set profile active")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "set profile active")
	}
	cache.InvalidateUser(ctx, r.cm, userID)
	return nil
}

func (r *profileRepository) SetRole(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		Update("role", role)
	if result.Error != nil {
		return r.handleDBError(result.Error, "set profile role")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "set profile role")
	}
	cache.InvalidateUser(ctx, r.cm, userID)
	return nil
}
