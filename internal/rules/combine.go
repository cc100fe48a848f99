// internal/rules/combine.go
package rules

import (
	"github.com/printlijst/printlijst/internal/types"
)

/*
 * Rule group combination.
 *
 * Rules sharing one outcome (a tag name, an exclusion reason) form an ordered
 * group. The group's truth value folds left-to-right: the operator stored on
 * rule i links its result to rule i+1.
 *
 *   result = match(r0)
 *   result = result OP(r0.Operator) match(r1)
 *   result = result OP(r1.Operator) match(r2)
 *   ...
 *
 * This is strict left-fold evaluation, NOT boolean operator precedence:
 * "A AND B OR C" evaluates as ((A AND B) OR C). The behavior is preserved
 * for compatibility with existing rule sets; see DESIGN.md before "fixing"
 * it to standard precedence.
 */

// GroupRule is one predicate inside an outcome group. Operator links it to
// the next rule in the group and is ignored on the last rule.
type GroupRule struct {
	Field     types.Field
	Condition types.Condition
	Value     string
	Operator  types.Operator
	Scope     types.Scope
}

// EvaluateGroup folds an ordered rule group into a single boolean against
// ctx. An empty group never matches.
func EvaluateGroup(group []GroupRule, ctx Context) bool {
	if len(group) == 0 {
		return false
	}

	result := matchScoped(ctx, group[0].Scope, group[0].Field, group[0].Condition, group[0].Value)
	for i := 1; i < len(group); i++ {
		matched := matchScoped(ctx, group[i].Scope, group[i].Field, group[i].Condition, group[i].Value)
		if group[i-1].Operator == types.OperatorOr {
			result = result || matched
		} else {
			// AND is the default when the operator is unset
			result = result && matched
		}
	}
	return result
}
