package tenant

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTenantScopeMissing is returned when a statement on a partitioned table has
// no tenant_id condition
var ErrTenantScopeMissing = errors.New("tenant scope missing on partitioned table")

// Guard is a GORM callback that refuses unscoped reads, updates and deletes on
// tenant-partitioned tables. Inserts are not checked because tenant_id is a
// NOT NULL column set by the domain.
type Guard struct {
	column string
	tables map[string]struct{}
}

// NewGuard creates a guard for the given table names
func NewGuard(tables ...string) *Guard {
	set := make(map[string]struct{}, len(tables))
	for _, t := range tables {
		set[t] = struct{}{}
	}
	return &Guard{column: Column, tables: set}
}

// Register installs the guard on db
func (g *Guard) Register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant:guard_query", g.check); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant:guard_row", g.check); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant:guard_update", g.check); err != nil {
		return err
	}
	return cb.Delete().Before("gorm:delete").Register("tenant:guard_delete", g.check)
}

func (g *Guard) check(db *gorm.DB) {
	if db.Error != nil || isOwnershipLookup(db) {
		return
	}

	// Raw SQL has no clauses to inspect
	if db.Statement.Table == "" {
		sql := db.Statement.SQL.String()
		if sql != "" && g.mentionsGuardedTable(sql) && !strings.Contains(sql, g.column) {
			_ = db.AddError(ErrTenantScopeMissing)
		}
		return
	}

	if _, guarded := g.tables[db.Statement.Table]; !guarded {
		return
	}
	if !g.hasTenantCondition(db) {
		_ = db.AddError(ErrTenantScopeMissing)
	}
}

func (g *Guard) mentionsGuardedTable(sql string) bool {
	for t := range g.tables {
		if strings.Contains(sql, t) {
			return true
		}
	}
	return false
}

// hasTenantCondition checks if tenant_id condition is already present
func (g *Guard) hasTenantCondition(db *gorm.DB) bool {
	if whereClause, ok := db.Statement.Clauses["WHERE"]; ok {
		if where, ok := whereClause.Expression.(clause.Where); ok {
			for _, expr := range where.Exprs {
				if g.exprContainsTenant(expr) {
					return true
				}
			}
		}
	}

	sql := db.Statement.SQL.String()
	return sql != "" && strings.Contains(sql, g.column)
}

// exprContainsTenant checks if an expression constrains the tenant column.
// A disjunction only counts if every branch does.
func (g *Guard) exprContainsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == g.column
		}
		if col, ok := e.Column.(string); ok {
			return col == g.column
		}
	case clause.IN:
		if col, ok := e.Column.(clause.Column); ok {
			return col.Name == g.column
		}
	case clause.Expr:
		return strings.Contains(e.SQL, g.column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, g.column)
	case clause.AndConditions:
		for _, cond := range e.Exprs {
			if g.exprContainsTenant(cond) {
				return true
			}
		}
	case clause.OrConditions:
		if len(e.Exprs) == 0 {
			return false
		}
		for _, cond := range e.Exprs {
			if !g.exprContainsTenant(cond) {
				return false
			}
		}
		return true
	}
	return false
}
