// internal/rules/classify_test.go
package rules

import (
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/printlijst/printlijst/internal/types"
)

func testClassifier(snap Snapshot) *Classifier {
	return NewClassifier(snap, zerolog.Nop())
}

func tagRule(tag string, field types.Field, cond types.Condition, value string, op types.Operator, scope types.Scope) types.TagRule {
	return types.TagRule{
		ID: types.NewRuleID(), Field: field, Condition: cond, Value: value,
		Tag: tag, Operator: op, Scope: scope, Active: true, CreatedAt: time.Now(),
	}
}

func TestClassifyTags_UnionAndSourceMerge(t *testing.T) {
	c := testClassifier(Snapshot{
		Tags: []types.TagRule{
			tagRule("glas", types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorAnd, types.ScopeProduct),
			tagRule("spoed", types.FieldOrderStatus, types.ConditionEquals, "backorder", types.OperatorAnd, types.ScopeOrder),
			tagRule("nomatch", types.FieldSKU, types.ConditionStartsWith, "ZZ-", types.OperatorAnd, types.ScopeProduct),
		},
	})

	ctx := Context{
		SKU:         "GL-10",
		SKUs:        []string{"GL-10"},
		OrderStatus: "backorder",
		SourceTags:  []string{"webshop"},
	}

	got := c.ClassifyTags(ctx)
	want := []string{"webshop", "glas", "spoed"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ClassifyTags() = %v, want %v", got, want)
	}
}

func TestClassifyTags_Idempotent(t *testing.T) {
	c := testClassifier(Snapshot{
		Tags: []types.TagRule{
			tagRule("glas", types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorAnd, types.ScopeProduct),
		},
	})

	ctx := Context{SKU: "GL-10", SourceTags: []string{"webshop"}}
	first := c.ClassifyTags(ctx)

	// Feed the derived set back in as source tags; the result must not grow.
	ctx.SourceTags = first
	second := c.ClassifyTags(ctx)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("reapplying classification changed the tag set: %v -> %v", first, second)
	}
}

func TestClassifyTags_CaseInsensitiveDedupe(t *testing.T) {
	c := testClassifier(Snapshot{
		Tags: []types.TagRule{
			tagRule("Glas", types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorAnd, types.ScopeProduct),
		},
	})

	ctx := Context{SKU: "GL-10", SourceTags: []string{"glas"}}
	got := c.ClassifyTags(ctx)
	want := []string{"glas"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ClassifyTags() = %v, want %v (source casing wins)", got, want)
	}
}

func TestClassifyTags_GroupLeftFold(t *testing.T) {
	// Two rules in one "sample" group: sku starts_with GL- AND orderStatus
	// equals backorder.
	c := testClassifier(Snapshot{
		Tags: []types.TagRule{
			tagRule("sample", types.FieldSKU, types.ConditionStartsWith, "GL-", types.OperatorAnd, types.ScopeProduct),
			tagRule("sample", types.FieldOrderStatus, types.ConditionEquals, "backorder", types.OperatorAnd, types.ScopeProduct),
		},
	})

	got := c.ClassifyTags(Context{SKU: "GL-10", OrderStatus: "backorder"})
	if !reflect.DeepEqual(got, []string{"sample"}) {
		t.Errorf("ClassifyTags() = %v, want [sample]", got)
	}

	got = c.ClassifyTags(Context{SKU: "GL-10", OrderStatus: "completed"})
	if len(got) != 0 {
		t.Errorf("ClassifyTags() = %v, want empty (AND group half-matched)", got)
	}
}

func exclusionRule(reason string, field types.Field, cond types.Condition, value string) types.ExclusionRule {
	return types.ExclusionRule{
		ID: types.NewRuleID(), Field: field, Condition: cond, Value: value,
		Reason: reason, Operator: types.OperatorAnd, Scope: types.ScopeProduct,
		Active: true, CreatedAt: time.Now(),
	}
}

func TestClassifyExclusion_FirstGroupWins(t *testing.T) {
	c := testClassifier(Snapshot{
		Exclusions: []types.ExclusionRule{
			exclusionRule("sample order", types.FieldSKU, types.ConditionStartsWith, "SAMPLE-"),
			exclusionRule("digital product", types.FieldSKU, types.ConditionContains, "SAMPLE"),
		},
	})

	// Both groups would match; the first one's reason must be reported.
	excluded, reason := c.ClassifyExclusion(Context{SKU: "SAMPLE-01"})
	if !excluded {
		t.Fatal("expected exclusion")
	}
	if reason != "sample order" {
		t.Errorf("reason = %q, want %q (first matching group)", reason, "sample order")
	}
}

func TestClassifyExclusion_NoMatch(t *testing.T) {
	c := testClassifier(Snapshot{
		Exclusions: []types.ExclusionRule{
			exclusionRule("sample order", types.FieldSKU, types.ConditionStartsWith, "SAMPLE-"),
		},
	})

	excluded, reason := c.ClassifyExclusion(Context{SKU: "GL-10"})
	if excluded || reason != "" {
		t.Errorf("ClassifyExclusion() = (%v, %q), want (false, \"\")", excluded, reason)
	}
}

func priorityRule(p types.Priority, field types.Field, cond types.Condition, value string, scope types.Scope) types.PriorityRule {
	return types.PriorityRule{
		ID: types.NewRuleID(), Field: field, Condition: cond, Value: value,
		Priority: p, Scope: scope, Active: true, CreatedAt: time.Now(),
	}
}

func TestClassifyPriority_DefaultNormal(t *testing.T) {
	c := testClassifier(Snapshot{})
	got, matched := c.ClassifyPriority(Context{SKU: "GL-10"})
	if got != types.PriorityNormal || matched {
		t.Errorf("ClassifyPriority() = %v, %v, want normal without a match", got, matched)
	}
}

func TestClassifyPriority_OrderScopeBeatsProductScope(t *testing.T) {
	c := testClassifier(Snapshot{
		Priorities: []types.PriorityRule{
			priorityRule(types.PriorityLow, types.FieldSKU, types.ConditionStartsWith, "GL-", types.ScopeProduct),
			priorityRule(types.PriorityUrgent, types.FieldOrderStatus, types.ConditionEquals, "backorder", types.ScopeOrder),
		},
	})

	got, matched := c.ClassifyPriority(Context{SKU: "GL-10", OrderStatus: "backorder"})
	if got != types.PriorityUrgent || !matched {
		t.Errorf("ClassifyPriority() = %v, %v, want urgent (order scope wins)", got, matched)
	}
}

func TestClassifyPriority_OrderScopeSKUWidening(t *testing.T) {
	c := testClassifier(Snapshot{
		Priorities: []types.PriorityRule{
			priorityRule(types.PriorityHigh, types.FieldSKU, types.ConditionStartsWith, "A", types.ScopeOrder),
		},
	})

	// The line's own SKU does not match, but a sibling line's does.
	got, matched := c.ClassifyPriority(Context{SKU: "B-2", SKUs: []string{"A-1", "B-2"}})
	if got != types.PriorityHigh || !matched {
		t.Errorf("ClassifyPriority() = %v, %v, want high via any-SKU widening", got, matched)
	}
}

func TestClassifyPriority_FirstMatchWins(t *testing.T) {
	c := testClassifier(Snapshot{
		Priorities: []types.PriorityRule{
			priorityRule(types.PriorityHigh, types.FieldSKU, types.ConditionStartsWith, "GL-", types.ScopeProduct),
			priorityRule(types.PriorityLow, types.FieldSKU, types.ConditionContains, "GL", types.ScopeProduct),
		},
	})

	if got, _ := c.ClassifyPriority(Context{SKU: "GL-10"}); got != types.PriorityHigh {
		t.Errorf("ClassifyPriority() = %v, want high (first matching rule)", got)
	}
}

func TestClassifier_UnknownFieldNeverMatches(t *testing.T) {
	c := testClassifier(Snapshot{
		Tags: []types.TagRule{
			tagRule("mystery", types.Field("productColor"), types.ConditionEquals, "red", types.OperatorAnd, types.ScopeProduct),
		},
		Exclusions: []types.ExclusionRule{
			{ID: types.NewRuleID(), Field: types.FieldSKU, Condition: types.Condition("regex"), Value: ".*", Reason: "x", Scope: types.ScopeProduct, Active: true},
		},
	})

	ctx := Context{SKU: "GL-10"}
	if got := c.ClassifyTags(ctx); len(got) != 0 {
		t.Errorf("unknown field produced tags: %v", got)
	}
	if excluded, _ := c.ClassifyExclusion(ctx); excluded {
		t.Error("unknown condition produced an exclusion")
	}
}

func TestOrderFilterStatus(t *testing.T) {
	c := testClassifier(Snapshot{
		Conditions: []types.ConditionRule{
			{ID: types.NewRuleID(), Field: types.FieldCustomerName, Condition: types.ConditionEquals, Value: "x", Active: true},
			{ID: types.NewRuleID(), Field: types.FieldOrderStatus, Condition: types.ConditionEquals, Value: "backorder", Active: true},
		},
	})

	status, ok := c.OrderFilterStatus()
	if !ok || status != "backorder" {
		t.Errorf("OrderFilterStatus() = (%q, %v), want (backorder, true)", status, ok)
	}

	c = testClassifier(Snapshot{})
	if _, ok := c.OrderFilterStatus(); ok {
		t.Error("OrderFilterStatus() should report false with no condition rules")
	}
}
