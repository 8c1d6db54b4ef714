package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeDelete deletes cache keys, logging instead of failing the caller.
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// SafeInvalidatePattern invalidates a cache pattern, logging on failure.
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// InvalidateQuestion drops every key that could hold stale question data
// after a mutation: the single-item key, the unscoped list, and the
// subject-scoped list when the question is linked to a subject.
func InvalidateQuestion(ctx context.Context, cm *CacheManager, questionID uint, subjectID *uint) {
	SafeDelete(ctx, cm.Question, fmt.Sprintf("id:%d", questionID))
	SafeInvalidatePattern(ctx, cm.Question, "list:*")
	if subjectID != nil {
		SafeInvalidatePattern(ctx, cm.Question, fmt.Sprintf("subject:%d:*", *subjectID))
	}
}

// InvalidateExam drops exam item and list keys after a mutation.
func InvalidateExam(ctx context.Context, cm *CacheManager, examID uint, subjectID *uint) {
	SafeDelete(ctx, cm.Exam, fmt.Sprintf("id:%d", examID))
	SafeInvalidatePattern(ctx, cm.Exam, "list:*")
	if subjectID != nil {
		SafeInvalidatePattern(ctx, cm.Exam, fmt.Sprintf("subject:%d:*", *subjectID))
	}
}

// InvalidateTaxonomy drops the taxonomy caches. Taxonomy rows are few and
// referenced from many scoped lists, so the whole family goes.
func InvalidateTaxonomy(ctx context.Context, cm *CacheManager) {
	SafeInvalidatePattern(ctx, cm.Taxonomy, "*")
}

// InvalidateUser drops the cached profile for one user.
func InvalidateUser(ctx context.Context, cm *CacheManager, userID string) {
	SafeDelete(ctx, cm.User, "id:"+userID)
}
