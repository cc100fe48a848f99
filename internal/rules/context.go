// internal/rules/context.go
package rules

import (
	"github.com/printlijst/printlijst/internal/types"
)

// Context carries the field values one classification pass evaluates against:
// the attributes of a single product line plus the order-wide attributes it
// belongs to. SKUs holds every non-parent SKU in the order and feeds the
// existential widening of order-scoped sku rules.
type Context struct {
	SKU          string   // SKU of the product line under evaluation
	SKUs         []string // all non-parent SKUs in the order
	OrderNumber  string
	CustomerName string
	OrderStatus  string
	SourceTags   []string // tags already present on the source order
}

// field resolves a rule field to the product-scoped value. Empty string means
// absent; the matcher treats absent as never matching.
func (c Context) field(f types.Field) string {
	switch f {
	case types.FieldSKU:
		return c.SKU
	case types.FieldOrderNumber:
		return c.OrderNumber
	case types.FieldCustomerName:
		return c.CustomerName
	case types.FieldOrderStatus:
		return c.OrderStatus
	default:
		return ""
	}
}

// matchScoped evaluates a single predicate honoring its scope. Order scope
// widens the sku field to "any SKU in the order"; every other field reads the
// same order-wide attribute in both scopes.
func matchScoped(ctx Context, scope types.Scope, field types.Field, condition types.Condition, value string) bool {
	if scope == types.ScopeOrder && field == types.FieldSKU {
		for _, sku := range ctx.SKUs {
			if Matches(sku, condition, value) {
				return true
			}
		}
		return false
	}
	return Matches(ctx.field(field), condition, value)
}
