// internal/rules/classify.go
package rules

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/printlijst/printlijst/internal/types"
)

/*
 * Rule classification.
 *
 * A Classifier wraps one immutable snapshot of the active rule sets and
 * answers the three derivation questions for a job context:
 *
 *   ClassifyTags      -> which tags does this job carry
 *   ClassifyExclusion -> must this product line be kept out of the queue
 *   ClassifyPriority  -> which production priority applies
 *
 * A sync run builds one Classifier up front and reuses it for every order in
 * the run, so rules changed mid-run never affect orders already processed.
 *
 * Misconfigured rules (unknown field or condition) are logged once at
 * construction and simply never match. They must not break the pipeline; a
 * typo in one rule should not stop order imports.
 */

// Snapshot is a consistent view of the active rule sets, loaded once per run.
// Slices are expected in creation-time order; group evaluation and
// first-match-wins policies depend on it.
type Snapshot struct {
	Conditions []types.ConditionRule
	Tags       []types.TagRule
	Priorities []types.PriorityRule
	Exclusions []types.ExclusionRule
}

// Classifier evaluates one rule snapshot. Safe for concurrent use; it holds
// no mutable state after construction.
type Classifier struct {
	snap       Snapshot
	tagGroups  []tagGroup
	exclGroups []exclusionGroup
	log        zerolog.Logger
}

type tagGroup struct {
	tag   string
	rules []GroupRule
}

type exclusionGroup struct {
	reason string
	rules  []GroupRule
}

// NewClassifier groups the snapshot's tag and exclusion rules by outcome key
// and reports misconfigured rules.
func NewClassifier(snap Snapshot, log zerolog.Logger) *Classifier {
	c := &Classifier{snap: snap, log: log}

	// Tag groups are keyed by (scope, tag) so product-level and order-level
	// derivation stay independent, then merge by union.
	tagIndex := make(map[[2]string]int)
	for _, r := range snap.Tags {
		c.checkRule("tag", string(r.ID), r.Field, r.Condition)
		key := [2]string{string(r.Scope), r.Tag}
		idx, ok := tagIndex[key]
		if !ok {
			idx = len(c.tagGroups)
			tagIndex[key] = idx
			c.tagGroups = append(c.tagGroups, tagGroup{tag: r.Tag})
		}
		c.tagGroups[idx].rules = append(c.tagGroups[idx].rules, GroupRule{
			Field:     r.Field,
			Condition: r.Condition,
			Value:     r.Value,
			Operator:  r.Operator,
			Scope:     r.Scope,
		})
	}

	exclIndex := make(map[string]int)
	for _, r := range snap.Exclusions {
		c.checkRule("exclusion", string(r.ID), r.Field, r.Condition)
		idx, ok := exclIndex[r.Reason]
		if !ok {
			idx = len(c.exclGroups)
			exclIndex[r.Reason] = idx
			c.exclGroups = append(c.exclGroups, exclusionGroup{reason: r.Reason})
		}
		c.exclGroups[idx].rules = append(c.exclGroups[idx].rules, GroupRule{
			Field:     r.Field,
			Condition: r.Condition,
			Value:     r.Value,
			Operator:  r.Operator,
			Scope:     r.Scope,
		})
	}

	for _, r := range snap.Priorities {
		c.checkRule("priority", string(r.ID), r.Field, r.Condition)
	}
	for _, r := range snap.Conditions {
		c.checkRule("condition", string(r.ID), r.Field, r.Condition)
	}

	return c
}

func (c *Classifier) checkRule(kind, id string, field types.Field, cond types.Condition) {
	if !field.Known() {
		c.log.Warn().Str("rule_kind", kind).Str("rule_id", id).Str("field", string(field)).
			Msg("rule references unknown field; it will never match")
	}
	if !cond.Known() {
		c.log.Warn().Str("rule_kind", kind).Str("rule_id", id).Str("condition", string(cond)).
			Msg("rule uses unknown condition; it will never match")
	}
}

// ClassifyTags returns the job's tag set: the source order's own tags merged
// with the tag of every rule group that evaluates true for ctx. Insertion
// order is preserved and duplicates are dropped case-insensitively, so
// reapplying to an unchanged context yields the same set.
func (c *Classifier) ClassifyTags(ctx Context) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(tag string) {
		key := strings.ToLower(strings.TrimSpace(tag))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(tag))
	}

	for _, t := range ctx.SourceTags {
		add(t)
	}
	for _, g := range c.tagGroups {
		if EvaluateGroup(g.rules, ctx) {
			add(g.tag)
		}
	}
	return out
}

// ClassifyExclusion reports whether the product line is excluded and, if so,
// the reason of the FIRST matching group in creation order. Later groups are
// not evaluated once one matches.
func (c *Classifier) ClassifyExclusion(ctx Context) (bool, string) {
	for _, g := range c.exclGroups {
		if EvaluateGroup(g.rules, ctx) {
			return true, g.reason
		}
	}
	return false, ""
}

// ClassifyPriority returns the job's priority and whether a rule decided it.
// Order-scoped rules take precedence over product-scoped ones; within each
// scope the first matching rule wins. No match reports normal with matched
// false so callers can pick their own default.
//
// Unlike tags and exclusions, priority rules do not group: each rule stands
// alone because two rules producing different priorities cannot union.
func (c *Classifier) ClassifyPriority(ctx Context) (types.Priority, bool) {
	for _, scope := range []types.Scope{types.ScopeOrder, types.ScopeProduct} {
		for _, r := range c.snap.Priorities {
			if r.Scope != scope {
				continue
			}
			if !matchScoped(ctx, r.Scope, r.Field, r.Condition, r.Value) {
				continue
			}
			if !r.Priority.Valid() {
				c.log.Warn().Str("rule_id", string(r.ID)).Str("priority", string(r.Priority)).
					Msg("priority rule carries unknown priority; skipping")
				continue
			}
			return r.Priority, true
		}
	}
	return types.PriorityNormal, false
}

// MatchesConditions reports whether ctx satisfies every active condition
// rule. Sync runs re-validate each fetched order with this even when the
// source already filtered, because source-side filtering has proven lossy.
// With no condition rules nothing qualifies.
func (c *Classifier) MatchesConditions(ctx Context) bool {
	if len(c.snap.Conditions) == 0 {
		return false
	}
	for _, r := range c.snap.Conditions {
		// Conditions select whole orders, so sku quantifies over every line
		if !matchScoped(ctx, types.ScopeOrder, r.Field, r.Condition, r.Value) {
			return false
		}
	}
	return true
}

// OrderFilterStatus returns the order-status value the sync run should filter
// on, taken from the first active condition rule on the orderStatus field.
// Returns false when no such rule exists.
func (c *Classifier) OrderFilterStatus() (string, bool) {
	for _, r := range c.snap.Conditions {
		if r.Field == types.FieldOrderStatus && r.Value != "" {
			return r.Value, true
		}
	}
	return "", false
}
