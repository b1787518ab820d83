package persistence

import "strings"

// sortColumns whitelists the columns a list query may be ordered by. Order
// clauses are built by string concatenation, so nothing else may reach them.
type sortColumns map[string]bool

// pick returns field when it is whitelisted and fallback otherwise
func (s sortColumns) pick(field, fallback string) string {
	if field = strings.TrimSpace(field); s[field] {
		return field
	}
	return fallback
}

// sortDirection folds dir to ASC or DESC, defaulting to DESC
func sortDirection(dir string) string {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return "ASC"
	}
	return "DESC"
}

var (
	shopInventorySortColumns = sortColumns{
		"id": true, "created_at": true, "updated_at": true,
		"quantity": true, "min_stock_level": true, "max_stock_level": true,
		"reorder_point": true, "last_restocked_at": true,
	}
	stockMovementSortColumns = sortColumns{
		"id": true, "created_at": true, "kind": true, "quantity": true,
	}
	stockTransferSortColumns = sortColumns{
		"id": true, "created_at": true, "updated_at": true, "status": true,
		"quantity": true, "approved_at": true, "completed_at": true,
	}
	billSortColumns = sortColumns{
		"id": true, "created_at": true, "updated_at": true, "bill_number": true,
		"bill_date": true, "due_date": true, "status": true, "total_amount": true,
	}
	saleSortColumns = sortColumns{
		"id": true, "created_at": true, "sale_date": true, "quantity": true, "total_amount": true,
	}
)
