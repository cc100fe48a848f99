// internal/rules/matcher_test.go
package rules

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/printlijst/printlijst/internal/types"
)

var allConditions = []types.Condition{
	types.ConditionEquals,
	types.ConditionStartsWith,
	types.ConditionEndsWith,
	types.ConditionContains,
	types.ConditionNotEquals,
	types.ConditionNotContains,
}

func TestMatches_Conditions(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		condition types.Condition
		rule      string
		want      bool
	}{
		{"equals exact", "GL-10", types.ConditionEquals, "GL-10", true},
		{"equals case-insensitive", "gl-10", types.ConditionEquals, "GL-10", true},
		{"equals mismatch", "GL-10", types.ConditionEquals, "GL-11", false},
		{"starts_with match", "GL-10-XL", types.ConditionStartsWith, "gl-", true},
		{"starts_with mismatch", "XGL-10", types.ConditionStartsWith, "GL-", false},
		{"ends_with match", "poster-60x90", types.ConditionEndsWith, "60X90", true},
		{"ends_with mismatch", "poster-60x90-v2", types.ConditionEndsWith, "60x90", false},
		{"contains match", "canvas-40x60-mat", types.ConditionContains, "40X60", true},
		{"contains mismatch", "canvas-40x60-mat", types.ConditionContains, "80x120", false},
		{"not_equals differs", "GL-10", types.ConditionNotEquals, "GL-11", true},
		{"not_equals same", "GL-10", types.ConditionNotEquals, "gl-10", false},
		{"not_contains absent substring", "GL-10", types.ConditionNotContains, "sample", true},
		{"not_contains present substring", "sample-GL-10", types.ConditionNotContains, "SAMPLE", false},
		{"unknown condition never matches", "GL-10", types.Condition("matches_regex"), "GL.*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.value, tt.condition, tt.rule); got != tt.want {
				t.Errorf("Matches(%q, %q, %q) = %v, want %v", tt.value, tt.condition, tt.rule, got, tt.want)
			}
		})
	}
}

// An absent field value must never match, not even for negated conditions.
// Missing data must not trip exclusions or tags aimed at real values.
func TestMatches_EmptyValueNeverMatches(t *testing.T) {
	for _, cond := range allConditions {
		if Matches("", cond, "anything") {
			t.Errorf("Matches(\"\", %q, \"anything\") = true, want false", cond)
		}
		if Matches("", cond, "") {
			t.Errorf("Matches(\"\", %q, \"\") = true, want false", cond)
		}
	}
}

func TestMatches_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	condGen := gen.OneConstOf(
		types.ConditionEquals, types.ConditionStartsWith, types.ConditionEndsWith,
		types.ConditionContains, types.ConditionNotEquals, types.ConditionNotContains,
	)

	properties.Property("empty field value never matches", prop.ForAll(
		func(cond types.Condition, rv string) bool {
			return !Matches("", cond, rv)
		},
		condGen,
		gen.AnyString(),
	))

	properties.Property("comparison is case-insensitive", prop.ForAll(
		func(cond types.Condition, v, rv string) bool {
			return Matches(v, cond, rv) == Matches(strings.ToUpper(v), cond, strings.ToLower(rv))
		},
		condGen,
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("not_equals is the negation of equals on non-empty values", prop.ForAll(
		func(v, rv string) bool {
			if v == "" {
				return true
			}
			return Matches(v, types.ConditionNotEquals, rv) != Matches(v, types.ConditionEquals, rv)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("not_contains is the negation of contains on non-empty values", prop.ForAll(
		func(v, rv string) bool {
			if v == "" {
				return true
			}
			return Matches(v, types.ConditionNotContains, rv) != Matches(v, types.ConditionContains, rv)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("equals implies contains, prefix and suffix", prop.ForAll(
		func(v string) bool {
			if v == "" {
				return true
			}
			return Matches(v, types.ConditionContains, v) &&
				Matches(v, types.ConditionStartsWith, v) &&
				Matches(v, types.ConditionEndsWith, v)
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
