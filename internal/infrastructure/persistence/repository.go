package persistence

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/retailcore/backend/internal/domain/shared"
)

// translateError maps GORM errors onto domain errors.
// Record-not-found becomes NotFound for resource; everything else is a
// PersistenceError wrapping the driver error.
func translateError(err error, resource, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewKindError(shared.KindConflict, "DUPLICATE_"+strings.ToUpper(strings.ReplaceAll(resource, " ", "_")),
			fmt.Sprintf("%s already exists", resource)).WithDetail("resource", resource)
	}
	return shared.NewPersistenceError(op+" "+resource, err)
}

// optimisticLockFailed reports a SaveWithLock that matched no row
func optimisticLockFailed(resource string) error {
	return shared.NewKindError(shared.KindConflict, "OPTIMISTIC_LOCK_FAILED",
		fmt.Sprintf("%s was modified by another transaction", resource)).WithDetail("resource", resource)
}

// applyPaging orders by a whitelisted column, defaultField when the filter
// names none or an unknown one, and limits to the filter's page
func applyPaging(query *gorm.DB, filter shared.Filter, allowed sortColumns, defaultField string) *gorm.DB {
	filter = filter.Normalize()
	return query.
		Order(allowed.pick(filter.OrderBy, defaultField) + " " + sortDirection(filter.OrderDir)).
		Offset(filter.Offset()).
		Limit(filter.PageSize)
}
