// internal/types/rules.go
package types

import "time"

/*
 * Domain types for rule evaluation.
 *
 * Provides the four rule kinds used by internal/rules for classification:
 *   - ConditionRule: which orders to pull during a sync run
 *   - TagRule: tags to stamp onto a print job
 *   - PriorityRule: production priority for a print job
 *   - ExclusionRule: product lines that must never become print jobs
 *
 * Tag and exclusion rules sharing an outcome key (tag name, reason) form an
 * ordered group; internal/rules combines a group left-to-right using the
 * per-rule Operator. Priority rules are evaluated one by one, first match
 * wins.
 */

// Field is a closed enumeration of the attributes a rule can inspect.
// Unknown fields never match; they are logged by the classifier, not raised.
type Field string

const (
	FieldSKU          Field = "sku"
	FieldOrderNumber  Field = "orderNumber"
	FieldCustomerName Field = "customerName"
	FieldOrderStatus  Field = "orderStatus"
)

// Known reports whether f is a recognized rule field.
func (f Field) Known() bool {
	switch f {
	case FieldSKU, FieldOrderNumber, FieldCustomerName, FieldOrderStatus:
		return true
	}
	return false
}

// Condition is the comparison applied between a field value and a rule value.
type Condition string

const (
	ConditionEquals      Condition = "equals"
	ConditionStartsWith  Condition = "starts_with"
	ConditionEndsWith    Condition = "ends_with"
	ConditionContains    Condition = "contains"
	ConditionNotEquals   Condition = "not_equals"
	ConditionNotContains Condition = "not_contains"
)

// Known reports whether c is a recognized condition.
func (c Condition) Known() bool {
	switch c {
	case ConditionEquals, ConditionStartsWith, ConditionEndsWith,
		ConditionContains, ConditionNotEquals, ConditionNotContains:
		return true
	}
	return false
}

// Operator links a rule to the NEXT rule in its group. The last rule's
// operator is ignored.
type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
)

// Scope selects what a rule is evaluated against: one product line, or the
// order as a whole. For order scope the sku field quantifies existentially
// over every non-parent product in the order.
type Scope string

const (
	ScopeProduct Scope = "product"
	ScopeOrder   Scope = "order"
)

// ConditionRule selects which source orders a sync run pulls. A rule with
// field orderStatus and value "backorder" makes the run fetch backorder
// orders.
type ConditionRule struct {
	ID        RuleID    `db:"id"`
	Field     Field     `db:"field"`
	Condition Condition `db:"condition"`
	Value     string    `db:"value"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// TagRule stamps a tag onto jobs whose group evaluates true.
type TagRule struct {
	ID        RuleID    `db:"id"`
	Field     Field     `db:"field"`
	Condition Condition `db:"condition"`
	Value     string    `db:"value"`
	Tag       string    `db:"tag"`
	Operator  Operator  `db:"operator"`
	Scope     Scope     `db:"scope"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// PriorityRule assigns a priority; first matching rule wins.
type PriorityRule struct {
	ID        RuleID    `db:"id"`
	Field     Field     `db:"field"`
	Condition Condition `db:"condition"`
	Value     string    `db:"value"`
	Priority  Priority  `db:"priority"`
	Scope     Scope     `db:"scope"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}

// ExclusionRule keeps matching product lines out of the print queue.
type ExclusionRule struct {
	ID        RuleID    `db:"id"`
	Field     Field     `db:"field"`
	Condition Condition `db:"condition"`
	Value     string    `db:"value"`
	Reason    string    `db:"reason"`
	Operator  Operator  `db:"operator"`
	Scope     Scope     `db:"scope"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}
