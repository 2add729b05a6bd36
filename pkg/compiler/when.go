package compiler

import (
	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/validator"
)

// BoundRule is a rule whose when-clauses have been bound to their
// dependency schemas.
type BoundRule struct {
	Rule model.Rule
	When []BoundWhen
}

// BoundWhen is a when-clause annotated with a clone of the dependency's type
// schema. Missing is set when the dependency is not registered; such clauses
// are inert.
type BoundWhen struct {
	Field      string
	Is         model.MatchSpec
	Dependency *validator.Schema
	Missing    bool
	Then       []BoundRule
	Otherwise  []BoundRule
}

// AddSchemaToWhenRules walks rules recursively, binds every when-clause to a
// clone of its dependency's schema and returns the dependency pairs found.
func (c *Compiler) AddSchemaToWhenRules(field string, rules []model.Rule, registry *ValidationRegistry) ([]BoundRule, []validator.DependencyPair, []Warning) {
	col := c.collector()
	bound, pairs := c.bindRules(field, rules, registry, col)
	return bound, pairs, col.warnings
}

func (c *Compiler) bindRules(field string, rules []model.Rule, registry *ValidationRegistry, col *collector) ([]BoundRule, []validator.DependencyPair) {
	if len(rules) == 0 {
		return nil, nil
	}
	var pairs []validator.DependencyPair
	out := make([]BoundRule, 0, len(rules))
	for _, rule := range rules {
		bound := BoundRule{Rule: rule}
		for _, clause := range rule.When {
			when := BoundWhen{Field: clause.Field, Is: clause.Is}
			if cfg, ok := registry.Get(clause.Field); ok {
				when.Dependency = cfg.base().Clone()
				pairs = append(pairs, validator.DependencyPair{Field: field, Dependency: clause.Field})
			} else {
				when.Missing = true
				col.add(Warning{Kind: WarnMissingDependency, Field: field, Dependency: clause.Field})
			}
			var nested []validator.DependencyPair
			when.Then, nested = c.bindRules(field, clause.Then, registry, col)
			pairs = append(pairs, nested...)
			when.Otherwise, nested = c.bindRules(field, clause.Otherwise, registry, col)
			pairs = append(pairs, nested...)
			bound.When = append(bound.When, when)
		}
		out = append(out, bound)
	}
	return out, pairs
}

func dedupePairs(pairs []validator.DependencyPair) []validator.DependencyPair {
	if len(pairs) == 0 {
		return nil
	}
	seen := make(map[validator.DependencyPair]struct{}, len(pairs))
	out := make([]validator.DependencyPair, 0, len(pairs))
	for _, pair := range pairs {
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}
	return out
}
