// internal/rules/matcher.go
package rules

import (
	"strings"

	"github.com/printlijst/printlijst/internal/types"
)

/*
 * Condition matching.
 *
 * Matches is the leaf evaluator for every rule kind: one (condition, value)
 * predicate against one candidate string. Pure and total; no I/O.
 *
 * Semantics:
 *   - An empty field value never matches, for ANY condition. Negated
 *     conditions included: absence of data must not satisfy not_equals or
 *     not_contains, or missing SKUs would trip exclusions and tags meant
 *     for real values.
 *   - Comparison is case-insensitive; both sides are lower-cased.
 *   - An unrecognized condition never matches and never errors. Callers that
 *     care about misconfigured rules detect it via Condition.Known.
 */

// Matches evaluates one condition predicate against a candidate field value.
// An empty fieldValue is treated as absent and never matches.
func Matches(fieldValue string, condition types.Condition, ruleValue string) bool {
	if fieldValue == "" {
		return false
	}

	v := strings.ToLower(fieldValue)
	rv := strings.ToLower(ruleValue)

	switch condition {
	case types.ConditionEquals:
		return v == rv
	case types.ConditionStartsWith:
		return strings.HasPrefix(v, rv)
	case types.ConditionEndsWith:
		return strings.HasSuffix(v, rv)
	case types.ConditionContains:
		return strings.Contains(v, rv)
	case types.ConditionNotEquals:
		return v != rv
	case types.ConditionNotContains:
		return !strings.Contains(v, rv)
	default:
		return false
	}
}
