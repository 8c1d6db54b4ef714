package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/cache"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

// ===== EXAM TYPES =====

type examTypeRepository struct {
	base
	cm *cache.CacheManager
}

func NewExamTypeRepository(db *gorm.DB, cm *cache.CacheManager) repositories.ExamTypeRepository {
	return &examTypeRepository{base: base{db: db}, cm: cm}
}

func (r *examTypeRepository) Create(ctx context.Context, tx *gorm.DB, examType *models.ExamType) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(examType).Error; err != nil {
		return r.handleDBError(err, "create exam type")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *examTypeRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamType, error) {
	db := r.getDB(tx)
	var examType models.ExamType

	if err := db.WithContext(ctx).First(&examType, id).Error; err != nil {
		return nil, r.handleDBError(err, "get exam type")
	}
	return &examType, nil
}

func (r *examTypeRepository) Update(ctx context.Context, tx *gorm.DB, examType *models.ExamType) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.ExamType{}).
		Where("id = ?", examType.ID).
		Updates(examType)
	if result.Error != nil {
		return r.handleDBError(result.Error, "update exam type")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "update exam type")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *examTypeRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.ExamType{}, id)
	if result.Error != nil {
		return r.handleDBError(result.Error, "delete exam type")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "delete exam type")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *examTypeRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.ExamType, error) {
	if tx == nil {
		var types []*models.ExamType
		err := r.cm.Taxonomy.CacheOrExecute(ctx, "exam_types:list", &types, cache.DefaultTTL, func() (interface{}, error) {
			return r.fetchList(ctx, nil)
		})
		if err == nil {
			return types, nil
		}
	}
	return r.fetchList(ctx, tx)
}

func (r *examTypeRepository) fetchList(ctx context.Context, tx *gorm.DB) ([]*models.ExamType, error) {
	db := r.getDB(tx)
	var types []*models.ExamType

	if err := db.WithContext(ctx).Order("name ASC").Find(&types).Error; err != nil {
		return nil, r.handleDBError(err, "list exam types")
	}
	return types, nil
}

func (r *examTypeRepository) ExistsByName(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.ExamType{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error; err != nil {
		return false, r.handleDBError(err, "check exam type name")
	}
	return count > 0, nil
}

// ===== EXAM YEARS =====

type examYearRepository struct {
	base
	cm *cache.CacheManager
}

func NewExamYearRepository(db *gorm.DB, cm *cache.CacheManager) repositories.ExamYearRepository {
	return &examYearRepository{base: base{db: db}, cm: cm}
}

func (r *examYearRepository) Create(ctx context.Context, tx *gorm.DB, year *models.ExamYear) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(year).Error; err != nil {
		return r.handleDBError(err, "create exam year")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *examYearRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamYear, error) {
	db := r.getDB(tx)
	var year models.ExamYear

	if err := db.WithContext(ctx).First(&year, id).Error; err != nil {
		return nil, r.handleDBError(err, "get exam year")
	}
	return &year, nil
}

func (r *examYearRepository) Update(ctx context.Context, tx *gorm.DB, year *models.ExamYear) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.ExamYear{}).
		Where("id = ?", year.ID).
		Updates(year)
	if result.Error != nil {
		return r.handleDBError(result.Error, "update exam year")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "update exam year")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *examYearRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.ExamYear{}, id)
	if result.Error != nil {
		return r.handleDBError(result.Error, "delete exam year")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "delete exam year")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *examYearRepository) ListByExamType(ctx context.Context, tx *gorm.DB, examTypeID uint) ([]*models.ExamYear, error) {
	if tx == nil {
		var years []*models.ExamYear
		key := fmt.Sprintf("exam_years:type:%d", examTypeID)
		err := r.cm.Taxonomy.CacheOrExecute(ctx, key, &years, cache.DefaultTTL, func() (interface{}, error) {
			return r.fetchByExamType(ctx, nil, examTypeID)
		})
		if err == nil {
			return years, nil
		}
	}
	return r.fetchByExamType(ctx, tx, examTypeID)
}

func (r *examYearRepository) fetchByExamType(ctx context.Context, tx *gorm.DB, examTypeID uint) ([]*models.ExamYear, error) {
	db := r.getDB(tx)
	var years []*models.ExamYear

	if err := db.WithContext(ctx).
		Where("exam_type_id = ?", examTypeID).
		Order("year DESC").
		Find(&years).Error; err != nil {
		return nil, r.handleDBError(err, "list exam years")
	}
	return years, nil
}

func (r *examYearRepository) ExistsByTypeAndYear(ctx context.Context, tx *gorm.DB, examTypeID uint, year int) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.ExamYear{}).
		Where("exam_type_id = ? AND year = ?", examTypeID, year).
		Count(&count).Error; err != nil {
		return false, r.handleDBError(err, "check exam year")
	}
	return count > 0, nil
}

// ===== SUBJECTS =====

type subjectRepository struct {
	base
	cm *cache.CacheManager
}

func NewSubjectRepository(db *gorm.DB, cm *cache.CacheManager) repositories.SubjectRepository {
	return &subjectRepository{base: base{db: db}, cm: cm}
}

func (r *subjectRepository) Create(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(subject).Error; err != nil {
		return r.handleDBError(err, "create subject")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *subjectRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Subject, error) {
	db := r.getDB(tx)
	var subject models.Subject

	if err := db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return nil, r.handleDBError(err, "get subject")
	}
	return &subject, nil
}

func (r *subjectRepository) Update(ctx context.Context, tx *gorm.DB, subject *models.Subject) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Subject{}).
		Where("id = ?", subject.ID).
		Updates(subject)
	if result.Error != nil {
		return r.handleDBError(result.Error, "update subject")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "update subject")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *subjectRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).Delete(&models.Subject{}, id)
	if result.Error != nil {
		return r.handleDBError(result.Error, "delete subject")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "delete subject")
	}
	cache.InvalidateTaxonomy(ctx, r.cm)
	return nil
}

func (r *subjectRepository) ListByExamYear(ctx context.Context, tx *gorm.DB, examYearID uint) ([]*models.Subject, error) {
	if tx == nil {
		var subjects []*models.Subject
		key := fmt.Sprintf("subjects:year:%d", examYearID)
		err := r.cm.Taxonomy.CacheOrExecute(ctx, key, &subjects, cache.DefaultTTL, func() (interface{}, error) {
			return r.fetchByExamYear(ctx, nil, examYearID)
		})
		if err == nil {
			return subjects, nil
		}
	}
	return r.fetchByExamYear(ctx, tx, examYearID)
}

func (r *subjectRepository) fetchByExamYear(ctx context.Context, tx *gorm.DB, examYearID uint) ([]*models.Subject, error) {
	db := r.getDB(tx)
	var subjects []*models.Subject

	if err := db.WithContext(ctx).
		Where("exam_year_id = ?", examYearID).
		Order("name ASC").
		Find(&subjects).Error; err != nil {
		return nil, r.handleDBError(err, "list subjects")
	}
	return subjects, nil
}

func (r *subjectRepository) ExistsByYearAndName(ctx context.Context, tx *gorm.DB, examYearID uint, name string) (bool, error) {
	db := r.getDB(tx)
	var count int64

	if err := db.WithContext(ctx).
		Model(&models.Subject{}).
		Where("exam_year_id = ? AND LOWER(name) = LOWER(?)", examYearID, name).
		Count(&count).Error; err != nil {
		return false, r.handleDBError(err, "check subject name")
	}
	return count > 0, nil
}

// ===== EXAMS =====

type examRepository struct {
	base
	cm *cache.CacheManager
}

func NewExamRepository(db *gorm.DB, cm *cache.CacheManager) repositories.ExamRepository {
	return &examRepository{base: base{db: db}, cm: cm}
}

func (r *examRepository) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return r.handleDBError(err, "create exam")
	}
	cache.InvalidateExam(ctx, r.cm, exam.ID, exam.SubjectID)
	return nil
}

func (r *examRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if tx == nil {
		var exam models.Exam
		err := r.cm.Exam.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &exam, cache.DefaultTTL, func() (interface{}, error) {
			return r.fetchByID(ctx, nil, id)
		})
		if err == nil {
			return &exam, nil
		}
		if repositories.IsNotFoundError(err) {
			return nil, err
		}
	}
	return r.fetchByID(ctx, tx, id)
}

func (r *examRepository) fetchByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := r.getDB(tx)
	var exam models.Exam

	if err := db.WithContext(ctx).
		Preload("Subject").
		First(&exam, id).Error; err != nil {
		return nil, r.handleDBError(err, "get exam")
	}
	return &exam, nil
}

func (r *examRepository) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", exam.ID).
		Updates(exam)
	if result.Error != nil {
		return r.handleDBError(result.Error, "update exam")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "update exam")
	}
	cache.InvalidateExam(ctx, r.cm, exam.ID, exam.SubjectID)
	return nil
}

func (r *examRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	existing, err := r.fetchByID(ctx, tx, id)
	if err != nil {
		return err
	}

	db := r.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
		return r.handleDBError(err, "delete exam")
	}
	cache.InvalidateExam(ctx, r.cm, id, existing.SubjectID)
	return nil
}

func (r *examRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Exam{})

	if filters.SubjectID != nil {
		query = query.Where("subject_id = ?", *filters.SubjectID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleDBError(err, "count exams")
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var exams []*models.Exam
	if err := query.Preload("Subject").Find(&exams).Error; err != nil {
		return nil, 0, r.handleDBError(err, "list exams")
	}
	return exams, total, nil
}
