package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/cache"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

// PostgreSQLRepository bundles every table-specific repository behind the
// repositories.Repository interface.
type PostgreSQLRepository struct {
	db *gorm.DB

	user               repositories.UserRepository
	profile            repositories.ProfileRepository
	activationToken    repositories.ActivationTokenRepository
	passwordResetToken repositories.PasswordResetTokenRepository
	question           repositories.QuestionRepository
	examType           repositories.ExamTypeRepository
	examYear           repositories.ExamYearRepository
	subject            repositories.SubjectRepository
	exam               repositories.ExamRepository
}

func NewPostgreSQLRepository(db *gorm.DB, cm *cache.CacheManager) *PostgreSQLRepository {
	return &PostgreSQLRepository{
		db:                 db,
		user:               NewUserRepository(db),
		profile:            NewProfileRepository(db, cm),
		activationToken:    NewActivationTokenRepository(db),
		passwordResetToken: NewPasswordResetTokenRepository(db),
		question:           NewQuestionRepository(db, cm),
		examType:           NewExamTypeRepository(db, cm),
		examYear:           NewExamYearRepository(db, cm),
		subject:            NewSubjectRepository(db, cm),
		exam:               NewExamRepository(db, cm),
	}
}

func (r *PostgreSQLRepository) User() repositories.UserRepository { return r.user }

func (r *PostgreSQLRepository) Profile() repositories.ProfileRepository { return r.profile }

func (r *PostgreSQLRepository) ActivationToken() repositories.ActivationTokenRepository {
	return r.activationToken
}

func (r *PostgreSQLRepository) PasswordResetToken() repositories.PasswordResetTokenRepository {
	return r.passwordResetToken
}

func (r *PostgreSQLRepository) Question() repositories.QuestionRepository { return r.question }

func (r *PostgreSQLRepository) ExamType() repositories.ExamTypeRepository { return r.examType }

func (r *PostgreSQLRepository) ExamYear() repositories.ExamYearRepository { return r.examYear }

func (r *PostgreSQLRepository) Subject() repositories.SubjectRepository { return r.subject }

func (r *PostgreSQLRepository) Exam() repositories.ExamRepository { return r.exam }

// WithTransaction runs fn inside a database transaction. The handle passed to
// fn must be forwarded to every repository call made within it.
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get database handle: %w", err)
	}
	return sqlDB.Close()
}
