package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/prepdesk/examprep-service/internal/repositories"
)

// base carries the helpers shared by every repository in this package.
type base struct {
	db *gorm.DB
}

// getDB returns the transaction handle when one is supplied, otherwise the
// repository's own connection.
func (b *base) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return b.db
}

// handleDBError normalizes gorm errors so services can match with
// repositories.IsNotFoundError.
func (b *base) handleDBError(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// allowedSortColumns whitelists sort targets so user input never reaches the
// ORDER BY clause directly.
var allowedSortColumns = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"id":         true,
	"difficulty": true,
	"type":       true,
}

// applyPaginationAndSort applies sorting and pagination with a column
// whitelist.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
