package store

import (
	"fmt"
	"time"

	"github.com/printlijst/printlijst/internal/rules"
	"github.com/printlijst/printlijst/internal/types"
)

// RuleSnapshot loads every active rule set in creation order. A sync run
// loads one snapshot up front and evaluates the whole run against it.
func (s *Store) RuleSnapshot() (rules.Snapshot, error) {
	var snap rules.Snapshot
	if err := s.q.Select("active-condition-rules", &snap.Conditions); err != nil {
		return rules.Snapshot{}, fmt.Errorf("load condition rules: %w", err)
	}
	if err := s.q.Select("active-tag-rules", &snap.Tags); err != nil {
		return rules.Snapshot{}, fmt.Errorf("load tag rules: %w", err)
	}
	if err := s.q.Select("active-priority-rules", &snap.Priorities); err != nil {
		return rules.Snapshot{}, fmt.Errorf("load priority rules: %w", err)
	}
	if err := s.q.Select("active-exclusion-rules", &snap.Exclusions); err != nil {
		return rules.Snapshot{}, fmt.Errorf("load exclusion rules: %w", err)
	}
	return snap, nil
}

// CreateConditionRule persists a new condition rule.
func (s *Store) CreateConditionRule(r *types.ConditionRule) error {
	if r.ID == "" {
		r.ID = types.NewRuleID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if _, err := s.q.Exec("create-condition-rule",
		r.ID, r.Field, r.Condition, r.Value, r.Active, r.CreatedAt); err != nil {
		return fmt.Errorf("create condition rule: %w", err)
	}
	return nil
}

// CreateTagRule persists a new tag rule.
func (s *Store) CreateTagRule(r *types.TagRule) error {
	if r.ID == "" {
		r.ID = types.NewRuleID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Operator == "" {
		r.Operator = types.OperatorAnd
	}
	if r.Scope == "" {
		r.Scope = types.ScopeProduct
	}
	if _, err := s.q.Exec("create-tag-rule",
		r.ID, r.Field, r.Condition, r.Value, r.Tag, r.Operator, r.Scope, r.Active, r.CreatedAt); err != nil {
		return fmt.Errorf("create tag rule: %w", err)
	}
	return nil
}

// CreatePriorityRule persists a new priority rule.
func (s *Store) CreatePriorityRule(r *types.PriorityRule) error {
	if r.ID == "" {
		r.ID = types.NewRuleID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Scope == "" {
		r.Scope = types.ScopeProduct
	}
	if _, err := s.q.Exec("create-priority-rule",
		r.ID, r.Field, r.Condition, r.Value, r.Priority, r.Scope, r.Active, r.CreatedAt); err != nil {
		return fmt.Errorf("create priority rule: %w", err)
	}
	return nil
}

// CreateExclusionRule persists a new exclusion rule.
func (s *Store) CreateExclusionRule(r *types.ExclusionRule) error {
	if r.ID == "" {
		r.ID = types.NewRuleID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Operator == "" {
		r.Operator = types.OperatorAnd
	}
	if r.Scope == "" {
		r.Scope = types.ScopeProduct
	}
	if _, err := s.q.Exec("create-exclusion-rule",
		r.ID, r.Field, r.Condition, r.Value, r.Reason, r.Operator, r.Scope, r.Active, r.CreatedAt); err != nil {
		return fmt.Errorf("create exclusion rule: %w", err)
	}
	return nil
}
