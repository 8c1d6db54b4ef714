package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/cache"
	"github.com/prepdesk/examprep-service/internal/models"
	"github.com/prepdesk/examprep-service/internal/repositories"
)

type questionRepository struct {
	base
	cm *cache.CacheManager
}

func NewQuestionRepository(db *gorm.DB, cm *cache.CacheManager) repositories.QuestionRepository {
	return &questionRepository{base: base{db: db}, cm: cm}
}

func (r *questionRepository) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return r.handleDBError(err, "create question")
	}
	cache.InvalidateQuestion(ctx, r.cm, question.ID, question.SubjectID)
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	if tx == nil {
		var question models.Question
		err := r.cm.Question.CacheOrExecute(ctx, fmt.Sprintf("id:%d", id), &question, cache.DefaultTTL, func() (interface{}, error) {
			return r.fetchByID(ctx, nil, id)
		})
		if err == nil {
			return &question, nil
		}
		if repositories.IsNotFoundError(err) {
			return nil, err
		}
	}
	return r.fetchByID(ctx, tx, id)
}

func (r *questionRepository) fetchByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := r.getDB(tx)
	var question models.Question

	if err := db.WithContext(ctx).
		Preload("Subject").
		First(&question, id).Error; err != nil {
		return nil, r.handleDBError(err, "get question")
	}
	return &question, nil
}

func (r *questionRepository) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := r.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", question.ID).
		Updates(question)
	if result.Error != nil {
		return r.handleDBError(result.Error, "update question")
	}
	if result.RowsAffected == 0 {
		return r.handleDBError(gorm.ErrRecordNotFound, "update question")
	}
	cache.InvalidateQuestion(ctx, r.cm, question.ID, question.SubjectID)
	return nil
}

func (r *questionRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	// Read the row first so the subject-scoped cache entries can be dropped.
	existing, err := r.fetchByID(ctx, tx, id)
	if err != nil {
		return err
	}

	db := r.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return r.handleDBError(err, "delete question")
	}
	cache.InvalidateQuestion(ctx, r.cm, id, existing.SubjectID)
	return nil
}

// cachedQuestionList keeps the page and its total count in one cache entry.
type cachedQuestionList struct {
	Items []*models.Question `json:"items"`
	Total int64              `json:"total"`
}

func (r *questionRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	if tx == nil {
		var cached cachedQuestionList
		err := r.cm.Question.CacheOrExecute(ctx, questionListKey(filters), &cached, cache.DefaultTTL, func() (interface{}, error) {
			items, total, err := r.fetchList(ctx, nil, filters)
			if err != nil {
				return nil, err
			}
			return cachedQuestionList{Items: items, Total: total}, nil
		})
		if err == nil {
			return cached.Items, cached.Total, nil
		}
	}
	return r.fetchList(ctx, tx, filters)
}

func (r *questionRepository) fetchList(ctx context.Context, tx *gorm.DB, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	db := r.getDB(tx)
	query := db.WithContext(ctx).Model(&models.Question{})

	if filters.SubjectID != nil {
		query = query.Where("subject_id = ?", *filters.SubjectID)
	}
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleDBError(err, "count questions")
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)

	var questions []*models.Question
	if err := query.Preload("Subject").Find(&questions).Error; err != nil {
		return nil, 0, r.handleDBError(err, "list questions")
	}
	return questions, total, nil
}

// questionListKey builds a cache key that encodes every filter so distinct
// pages never collide. Subject-scoped lists live under the subject:N:
// namespace so subject-level invalidation catches them.
func questionListKey(f repositories.QuestionFilters) string {
	suffix := fmt.Sprintf("list:t=%s:d=%s:c=%s:l=%d:o=%d:s=%s:%s",
		derefOr(f.Type, ""), derefOr(f.Difficulty, ""), derefStr(f.CreatedBy),
		f.Limit, f.Offset, f.SortBy, f.SortOrder)
	if f.SubjectID != nil {
		return fmt.Sprintf("subject:%d:%s", *f.SubjectID, suffix)
	}
	return suffix
}

func derefOr[T ~string](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func derefStr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
