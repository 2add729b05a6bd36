// Package condition evaluates render rules (OR of AND groups) against a
// snapshot of form values. It calls predicates directly, without compiling a
// schema, so it is cheap enough to run on every value change.
package condition

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
)

// Decision is the detailed result of evaluating a rule set.
type Decision struct {
	Visible bool
	// Missing lists dependency ids that were absent from the values snapshot.
	// Conditions on those ids are treated as unmet.
	Missing []string
}

// MissingDependency reports whether the rule set failed because it references
// fields that do not exist, as opposed to evaluating false.
func (d Decision) MissingDependency() bool {
	return !d.Visible && len(d.Missing) > 0
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithScope resolves custom predicates inside scope first.
func WithScope(scope string) Option {
	return func(e *Evaluator) {
		e.scope = scope
	}
}

// WithLogger routes unknown-condition warnings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Evaluator is stateless apart from the predicate registry it reads and the
// set of unknown names it has already warned about.
type Evaluator struct {
	predicates *predicate.Registry
	scope      string
	logger     *zap.Logger
	warned     sync.Map
}

// New constructs an Evaluator. A nil registry gets the builtin predicates.
func New(predicates *predicate.Registry, options ...Option) *Evaluator {
	if predicates == nil {
		predicates = predicate.NewRegistry()
	}
	e := &Evaluator{predicates: predicates, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Evaluate returns true if any group holds. An empty rule set always holds.
func (e *Evaluator) Evaluate(groups []model.RenderRuleGroup, values map[string]any) bool {
	return e.EvaluateDetailed(groups, values).Visible
}

// EvaluateDetailed is Evaluate plus the list of missing dependencies.
func (e *Evaluator) EvaluateDetailed(groups []model.RenderRuleGroup, values map[string]any) Decision {
	if len(groups) == 0 {
		return Decision{Visible: true}
	}
	missing := make(map[string]struct{})
	visible := false
	for _, group := range groups {
		if e.evaluateGroup(group, values, missing) {
			visible = true
			break
		}
	}
	decision := Decision{Visible: visible}
	if len(missing) > 0 {
		decision.Missing = make([]string, 0, len(missing))
		for id := range missing {
			decision.Missing = append(decision.Missing, id)
		}
		sort.Strings(decision.Missing)
	}
	return decision
}

func (e *Evaluator) evaluateGroup(group model.RenderRuleGroup, values map[string]any, missing map[string]struct{}) bool {
	if len(group) == 0 {
		return false
	}
	ok := true
	for _, id := range group.Dependencies() {
		value, exists := values[id]
		if !exists {
			missing[id] = struct{}{}
			ok = false
			continue
		}
		if !ok {
			continue
		}
		for _, set := range group[id] {
			if !e.EvaluateSet(id, set, value, values) {
				ok = false
				break
			}
		}
	}
	return ok
}

// EvaluateSet checks every condition of set against value (AND).
func (e *Evaluator) EvaluateSet(field string, set model.ConditionSet, value any, values map[string]any) bool {
	ctx := predicate.Context{Field: field, Parent: values, Scope: e.scope}
	for _, cond := range set {
		fn, ok := e.lookup(cond.Name)
		if !ok {
			return false
		}
		if !fn(value, cond.Arg, ctx) {
			return false
		}
	}
	return true
}

func (e *Evaluator) lookup(name string) (predicate.Predicate, bool) {
	if fn, ok := predicate.Structural(predicate.ConditionName(name)); ok {
		return fn, true
	}
	if fn, ok := e.predicates.Resolve(name, e.scope); ok {
		return fn, true
	}
	if _, seen := e.warned.LoadOrStore(name, struct{}{}); !seen {
		e.logger.Warn("condition: unknown condition treated as unmet",
			zap.String("condition", name),
			zap.String("scope", e.scope),
		)
	}
	return nil, false
}
