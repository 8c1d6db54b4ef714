package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/models"
)

var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err represents a missing row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// ===== FILTERS =====

type QuestionFilters struct {
	SubjectID  *uint
	Type       *models.QuestionType
	Difficulty *models.DifficultyLevel
	CreatedBy  *string
	Limit      int
	Offset     int
	SortBy     string
	SortOrder  string
}

type ExamFilters struct {
	SubjectID *uint
	CreatedBy *string
	Limit     int
	Offset    int
}

type UserFilters struct {
	Query  string
	Role   *models.UserRole
	Limit  int
	Offset int
}

// ===== REPOSITORY INTERFACES =====

// All repository methods accept an optional transaction handle; nil means
// the repository's own connection.

type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	GetByUsername(ctx context.Context, tx *gorm.DB, username string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, tx *gorm.DB, email, username string) (bool, error)
	UpdatePassword(ctx context.Context, tx *gorm.DB, userID, passwordHash string) error
	ConfirmEmail(ctx context.Context, tx *gorm.DB, userID string) error
	List(ctx context.Context, tx *gorm.DB, filters UserFilters) ([]*models.User, int64, error)
}

type ProfileRepository interface {
	Create(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error
	GetByUserID(ctx context.Context, tx *gorm.DB, userID string) (*models.UserProfile, error)
	Update(ctx context.Context, tx *gorm.DB, profile *models.UserProfile) error
	SetActive(ctx context.Context, tx *gorm.DB, userID string, active bool) error
	SetRole(ctx context.Context, tx *gorm.DB, userID string, role models.UserRole) error
}

type ActivationTokenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, token *models.ActivationToken) error
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.ActivationToken, error)
	Delete(ctx context.Context, tx *gorm.DB, token string) error
	DeleteForUser(ctx context.Context, tx *gorm.DB, userID string) error
}

type PasswordResetTokenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, token *models.PasswordResetToken) error
	GetByToken(ctx context.Context, tx *gorm.DB, token string) (*models.PasswordResetToken, error)
	Delete(ctx context.Context, tx *gorm.DB, token string) error
	DeleteForUser(ctx context.Context, tx *gorm.DB, userID string) error
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters QuestionFilters) ([]*models.Question, int64, error)
}

type ExamTypeRepository interface {
	Create(ctx context.Context, tx *gorm.DB, examType *models.ExamType) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamType, error)
	Update(ctx context.Context, tx *gorm.DB, examType *models.ExamType) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB) ([]*models.ExamType, error)
	ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error)
}

type ExamYearRepository interface {
	Create(ctx context.Context, tx *gorm.DB, year *models.ExamYear) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamYear, error)
	Update(ctx context.Context, tx *gorm.DB, year *models.ExamYear) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByExamType(ctx context.Context, tx *gorm.DB, examTypeID uint) ([]*models.ExamYear, error)
	ExistsByTypeAndYear(ctx context.Context, tx *gorm.DB, examTypeID uint, year int) (bool, error)
}

type SubjectRepository interface {
	Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error)
	Update(ctx context.Context, tx *gorm.DB, subject *models.Subject) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByExamYear(ctx context.Context, tx *gorm.DB, examYearID uint) ([]*models.Subject, error)
	ExistsByYearAndName(ctx context.Context, tx *gorm.DB, examYearID uint, name string) (bool, error)
}

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
}

// Repository is the aggregate handed to services.
type Repository interface {
	User() UserRepository
	Profile() ProfileRepository
	ActivationToken() ActivationTokenRepository
	PasswordResetToken() PasswordResetTokenRepository
	Question() QuestionRepository
	ExamType() ExamTypeRepository
	ExamYear() ExamYearRepository
	Subject() SubjectRepository
	Exam() ExamRepository

	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Ping(ctx context.Context) error
	Close() error
}
