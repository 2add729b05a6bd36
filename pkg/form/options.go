package form

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
	"github.com/goliatone/go-formrules/pkg/visibility"
)

// Option customises a Form.
type Option func(*Form)

// WithLogger sets the logger shared by every component of the form.
func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithPredicates shares a predicate registry. Predicates registered through
// Form.RegisterPredicate land in the form's own scope of that registry.
func WithPredicates(registry *predicate.Registry) Option {
	return func(f *Form) {
		if registry != nil {
			f.predicates = registry
		}
	}
}

// WithRestoreMode overrides the definition's form-wide restore policy.
func WithRestoreMode(mode model.RestoreMode) Option {
	return func(f *Form) {
		f.restoreMode = mode
	}
}

// WithScope fixes the predicate scope id. By default every form gets a
// random one.
func WithScope(scope string) Option {
	return func(f *Form) {
		f.scope = scope
	}
}

// WithInitialValues seeds the value store. Keys win over declared defaults.
func WithInitialValues(values map[string]any) Option {
	return func(f *Form) {
		if len(values) == 0 {
			return
		}
		if f.initial == nil {
			f.initial = make(map[string]any, len(values))
		}
		for k, v := range values {
			f.initial[k] = v
		}
	}
}

// WithDecorators registers decorators that run against the definition
// before it is mounted, after the built-in showIfExpr expansion.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(f *Form) {
		f.decorators = append(f.decorators, decorators...)
	}
}

// WithHooks observes field lifecycle events.
func WithHooks(hooks visibility.Hooks) Option {
	return func(f *Form) {
		f.hooks = append(f.hooks, hooks)
	}
}
