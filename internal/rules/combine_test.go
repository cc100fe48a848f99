// internal/rules/combine_test.go
package rules

import (
	"testing"

	"github.com/printlijst/printlijst/internal/types"
)

func productRule(field types.Field, cond types.Condition, value string, op types.Operator) GroupRule {
	return GroupRule{Field: field, Condition: cond, Value: value, Operator: op, Scope: types.ScopeProduct}
}

func TestEvaluateGroup_Empty(t *testing.T) {
	ctx := Context{SKU: "GL-10"}
	if EvaluateGroup(nil, ctx) {
		t.Error("empty group must never match")
	}
	if EvaluateGroup([]GroupRule{}, ctx) {
		t.Error("empty group must never match")
	}
}

func TestEvaluateGroup_SingleRule(t *testing.T) {
	ctx := Context{SKU: "GL-10"}

	if !EvaluateGroup([]GroupRule{
		productRule(types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorAnd),
	}, ctx) {
		t.Error("single matching rule should evaluate true")
	}

	if EvaluateGroup([]GroupRule{
		productRule(types.FieldSKU, types.ConditionStartsWith, "XX-", types.OperatorAnd),
	}, ctx) {
		t.Error("single non-matching rule should evaluate false")
	}
}

func TestEvaluateGroup_AndOr(t *testing.T) {
	ctx := Context{SKU: "GL-10", OrderStatus: "backorder"}

	// true AND true
	if !EvaluateGroup([]GroupRule{
		productRule(types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorAnd),
		productRule(types.FieldOrderStatus, types.ConditionEquals, "backorder", types.OperatorAnd),
	}, ctx) {
		t.Error("true AND true = true")
	}

	// true AND false
	if EvaluateGroup([]GroupRule{
		productRule(types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorAnd),
		productRule(types.FieldOrderStatus, types.ConditionEquals, "completed", types.OperatorAnd),
	}, ctx) {
		t.Error("true AND false = false")
	}

	// false OR true
	if !EvaluateGroup([]GroupRule{
		productRule(types.FieldSKU, types.ConditionStartsWith, "XX-", types.OperatorOr),
		productRule(types.FieldOrderStatus, types.ConditionEquals, "backorder", types.OperatorAnd),
	}, ctx) {
		t.Error("false OR true = true")
	}
}

// The combinator folds strictly left to right; it does not apply boolean
// operator precedence. (false AND true) OR false must be false even though
// standard precedence would parse false AND (true OR false) identically here;
// the distinguishing case is ((false AND true) OR true) = true versus a
// right-associative reading.
func TestEvaluateGroup_LeftFoldNotPrecedence(t *testing.T) {
	ctx := Context{SKU: "GL-10", OrderStatus: "backorder", CustomerName: "Jansen"}

	// R1=false AND R2=true OR R3=false -> ((false AND true) OR false) = false
	group := []GroupRule{
		productRule(types.FieldSKU, types.ConditionStartsWith, "XX-", types.OperatorAnd),      // false
		productRule(types.FieldOrderStatus, types.ConditionEquals, "backorder", types.OperatorOr), // true
		productRule(types.FieldCustomerName, types.ConditionEquals, "Peters", types.OperatorAnd),  // false
	}
	if EvaluateGroup(group, ctx) {
		t.Error("((false AND true) OR false) must be false under left-fold")
	}

	// R1=true OR R2=false AND R3=false -> ((true OR false) AND false) = false.
	// Standard precedence would give true OR (false AND false) = true.
	group = []GroupRule{
		productRule(types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorOr),          // true
		productRule(types.FieldOrderStatus, types.ConditionEquals, "completed", types.OperatorAnd), // false
		productRule(types.FieldCustomerName, types.ConditionEquals, "Peters", types.OperatorAnd),   // false
	}
	if EvaluateGroup(group, ctx) {
		t.Error("((true OR false) AND false) must be false under left-fold, not true per precedence")
	}
}

// Order-scoped sku rules quantify existentially over every SKU in the order.
func TestEvaluateGroup_OrderScopeSKUWidening(t *testing.T) {
	ctx := Context{
		SKU:  "B-2", // product under evaluation does not start with A
		SKUs: []string{"A-1", "B-2"},
	}

	group := []GroupRule{{
		Field:     types.FieldSKU,
		Condition: types.ConditionStartsWith,
		Value:     "A",
		Operator:  types.OperatorAnd,
		Scope:     types.ScopeOrder,
	}}

	if !EvaluateGroup(group, ctx) {
		t.Error("order-scoped sku rule must match when ANY SKU in the order matches")
	}

	// Product scope reads only the line's own SKU.
	group[0].Scope = types.ScopeProduct
	if EvaluateGroup(group, ctx) {
		t.Error("product-scoped sku rule must only consider the line's own SKU")
	}
}
