// Package visibility tracks which fields are shown, keeps the validation
// registry in step with that decision and decides which value a field gets
// back when it reappears.
package visibility

import (
	"github.com/goliatone/go-formrules/pkg/condition"
	"github.com/goliatone/go-formrules/pkg/model"
)

// Evaluator decides whether render rules hold for a values snapshot and
// reports dependencies that were missing from it.
type Evaluator interface {
	EvaluateDetailed(groups []model.RenderRuleGroup, values map[string]any) condition.Decision
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(groups []model.RenderRuleGroup, values map[string]any) condition.Decision

// EvaluateDetailed delegates to the underlying function.
func (fn EvaluatorFunc) EvaluateDetailed(groups []model.RenderRuleGroup, values map[string]any) condition.Decision {
	return fn(groups, values)
}

// State is the visibility of a mounted field.
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Reason explains a hidden state.
type Reason string

const (
	ReasonNone Reason = ""
	// ReasonRules means the render rules evaluated false.
	ReasonRules Reason = "rules"
	// ReasonMissingDependency means a rule referenced a field that is not in
	// the values snapshot. The field stays hidden until it appears.
	ReasonMissingDependency Reason = "missing_dependency"
	// ReasonParentHidden means an ancestor container is hidden.
	ReasonParentHidden Reason = "parent_hidden"
)

// Status is the current visibility of a field.
type Status struct {
	State   State
	Reason  Reason
	Missing []string
}

// Visible reports whether the field is shown.
func (s Status) Visible() bool {
	return s.State == Visible
}
