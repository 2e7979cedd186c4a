package persistence

import (
	"strings"
)

// ValidateSortOrder normalizes the sort order to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when it is whitelisted, defaultField otherwise.
// Only whitelisted names ever reach an ORDER BY clause.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"created_at":              true,
	"updated_at":              true,
	"order_number":            true,
	"status":                  true,
	"total_amount":            true,
	"estimated_delivery_date": true,
	"payment_due_date":        true,
}

// orderClause builds a safe ORDER BY for the order list; id breaks ties so
// pages are stable.
func orderClause(sortBy, sortOrder string) string {
	field := ValidateSortField(sortBy, PurchaseOrderSortFields, "created_at")
	dir := ValidateSortOrder(sortOrder)
	return field + " " + dir + ", id " + dir
}
