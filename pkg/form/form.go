package form

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/compiler"
	"github.com/goliatone/go-formrules/pkg/condition"
	"github.com/goliatone/go-formrules/pkg/condition/expr"
	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
	"github.com/goliatone/go-formrules/pkg/validator"
	"github.com/goliatone/go-formrules/pkg/visibility"
)

// ErrUnknownField is returned for ids that are not value fields of the form.
var ErrUnknownField = errors.New("form: unknown field")

// Form is a mounted FormDefinition with its value store.
type Form struct {
	definition  model.FormDefinition
	logger      *zap.Logger
	predicates  *predicate.Registry
	restoreMode model.RestoreMode
	scope       string
	initial     map[string]any
	decorators  []model.Decorator
	hooks       []visibility.Hooks

	fields     map[string]model.FieldDefinition
	values     map[string]any
	compiler   *compiler.Compiler
	controller *visibility.Controller

	composite      *compiler.Composite
	builtVersion   uint64
	predicateEpoch uint64
	builtEpoch     uint64
}

// New mounts def. Decorators run first (showIfExpr expansion is always
// applied), then the definition is checked, the value store is seeded from
// defaults and initial values, and every field is mounted parents first.
func New(def model.FormDefinition, options ...Option) (*Form, error) {
	f := &Form{}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}
	f.applyDefaults(def)

	f.definition = cloneDefinition(def)
	decorators := append([]model.Decorator{expr.Decorator()}, f.decorators...)
	for _, decorator := range decorators {
		if decorator == nil {
			continue
		}
		if err := decorator.Decorate(&f.definition); err != nil {
			return nil, fmt.Errorf("form: decorate definition: %w", err)
		}
	}
	if err := f.definition.Check(); err != nil {
		return nil, fmt.Errorf("form: %w", err)
	}

	evaluator := condition.New(f.predicates,
		condition.WithScope(f.scope),
		condition.WithLogger(f.logger),
	)
	f.compiler = compiler.New(
		compiler.WithPredicates(f.predicates),
		compiler.WithScope(f.scope),
		compiler.WithLogger(f.logger),
	)
	controllerOptions := []visibility.Option{
		visibility.WithEvaluator(evaluator),
		visibility.WithRestoreMode(f.restoreMode),
		visibility.WithLogger(f.logger),
		visibility.WithDefaultResolver(f.defaultFor),
	}
	for _, hooks := range f.hooks {
		controllerOptions = append(controllerOptions, visibility.WithHooks(hooks))
	}
	f.controller = visibility.New(controllerOptions...)

	f.fields = make(map[string]model.FieldDefinition)
	f.values = make(map[string]any)
	_ = f.definition.Walk(func(field model.FieldDefinition, _ string) error {
		f.fields[field.ID] = field
		return nil
	})
	f.seedValues()

	err := f.definition.Walk(func(field model.FieldDefinition, parent string) error {
		return f.controller.Mount(f.nodeFor(field, parent), f.values)
	})
	if err != nil {
		return nil, fmt.Errorf("form: mount: %w", err)
	}
	f.controller.Settle()
	return f, nil
}

func (f *Form) applyDefaults(def model.FormDefinition) {
	if f.logger == nil {
		f.logger = zap.NewNop()
	}
	if f.predicates == nil {
		f.predicates = predicate.NewRegistry(predicate.WithLogger(f.logger))
	}
	if f.scope == "" {
		f.scope = uuid.NewString()
	}
	if f.restoreMode == "" {
		f.restoreMode = def.RestoreMode
	}
	if f.restoreMode == "" {
		f.restoreMode = model.RestoreNone
	}
}

func (f *Form) nodeFor(field model.FieldDefinition, parent string) visibility.Node {
	node := visibility.Node{
		ID:          field.ID,
		Parent:      parent,
		Rules:       field.ShowIf,
		Default:     field.Default,
		RestoreMode: field.RestoreMode,
	}
	if !field.IsContainer() {
		cfg := compiler.FieldConfigFor(field)
		node.Config = &cfg
	}
	return node
}

func (f *Form) seedValues() {
	for id, field := range f.fields {
		if field.IsContainer() {
			continue
		}
		f.values[id] = field.Default
	}
	for id, value := range f.initial {
		if field, ok := f.fields[id]; ok && !field.IsContainer() {
			f.values[id] = value
		}
	}
}

func (f *Form) defaultFor(id string) (any, bool) {
	field, ok := f.fields[id]
	if !ok || field.Default == nil {
		return nil, false
	}
	return field.Default, true
}

// Definition returns the decorated definition the form was mounted from.
func (f *Form) Definition() model.FormDefinition {
	return f.definition
}

// Scope returns the predicate scope id of the form.
func (f *Form) Scope() string {
	return f.scope
}

// RestoreMode returns the form-wide restore policy.
func (f *Form) RestoreMode() model.RestoreMode {
	return f.restoreMode
}

// SetValue records user input for id and re-evaluates visibility. Fields
// that appear as a consequence receive their restored value.
func (f *Form) SetValue(id string, value any) error {
	if err := f.checkField(id); err != nil {
		return err
	}
	f.values[id] = value
	f.controller.Retain(id, value)
	f.refresh(true)
	return nil
}

// SetValues applies several edits before re-evaluating visibility once.
func (f *Form) SetValues(values map[string]any) error {
	for id := range values {
		if err := f.checkField(id); err != nil {
			return err
		}
	}
	for id, value := range values {
		f.values[id] = value
		f.controller.Retain(id, value)
	}
	f.refresh(true)
	return nil
}

func (f *Form) checkField(id string) error {
	field, ok := f.fields[id]
	if !ok || field.IsContainer() {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	return nil
}

func (f *Form) refresh(applyRestored bool) []visibility.Change {
	changes := f.controller.Refresh(f.values)
	if applyRestored {
		for _, change := range changes {
			if change.Restored {
				f.values[change.FieldID] = change.Value
			}
		}
	}
	return changes
}

// Value returns the raw stored value for id, hidden fields included.
func (f *Form) Value(id string) (any, bool) {
	value, ok := f.values[id]
	return value, ok
}

// Values returns a copy of the raw value store.
func (f *Form) Values() map[string]any {
	out := make(map[string]any, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// Visible reports whether id is shown.
func (f *Form) Visible(id string) bool {
	return f.controller.Visible(id)
}

// Status returns the visibility status of id.
func (f *Form) Status(id string) (visibility.Status, bool) {
	return f.controller.Status(id)
}

// Registered lists the fields currently taking part in validation.
func (f *Form) Registered() []string {
	return f.controller.Registry().IDs()
}

// Schema returns the composite validator for the current registry. It is
// rebuilt only when the registry or the form's predicates changed.
func (f *Form) Schema() *compiler.Composite {
	version := f.controller.Registry().Version()
	if f.composite == nil || version != f.builtVersion || f.predicateEpoch != f.builtEpoch {
		f.composite = f.compiler.BuildSchema(f.controller.Registry())
		f.builtVersion = version
		f.builtEpoch = f.predicateEpoch
	}
	return f.composite
}

// Warnings returns the configuration warnings of the current schema.
func (f *Form) Warnings() []compiler.Warning {
	return f.Schema().Warnings()
}

// Validate runs the composite validator over the value store.
func (f *Form) Validate() validator.Result {
	return f.Schema().Validate(f.values)
}

// FieldErrors validates a single field and returns its display messages.
// Hidden fields never report errors.
func (f *Form) FieldErrors(id string) []string {
	issues, ok := f.Schema().ValidateField(id, f.values)
	if !ok {
		return nil
	}
	return cleanMessages(issues.Blocking().Messages())
}

// Submit validates and returns the cast values of registered fields. Hidden
// fields are never part of the output. On failure the error is a
// *ValidationError.
func (f *Form) Submit() (map[string]any, error) {
	result := f.Validate()
	if !result.Valid() {
		return nil, NewValidationError(result)
	}
	return result.Value, nil
}

// Reset restores declared defaults and initial values, clears retained user
// input and re-evaluates visibility.
func (f *Form) Reset() {
	f.controller.ResetRetained()
	f.values = make(map[string]any, len(f.values))
	f.seedValues()
	f.refresh(false)
}

// UpdateRules replaces a field's validation rules.
func (f *Form) UpdateRules(id string, rules []model.Rule) error {
	field, ok := f.fields[id]
	if !ok || field.IsContainer() {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	field.Validation = rules
	f.fields[id] = field
	f.controller.UpdateConfig(id, compiler.FieldConfigFor(field))
	return nil
}

// UpdateShowIf replaces a field's render rules and re-evaluates visibility.
func (f *Form) UpdateShowIf(id string, groups []model.RenderRuleGroup) error {
	field, ok := f.fields[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, id)
	}
	field.ShowIf = groups
	f.fields[id] = field
	f.controller.UpdateRules(id, groups)
	f.refresh(true)
	return nil
}

// RegisterPredicate adds a custom condition visible only to this form.
func (f *Form) RegisterPredicate(typ model.SchemaType, name string, fn predicate.Predicate, options ...predicate.RegisterOption) bool {
	options = append(options, predicate.InScope(f.scope))
	ok := f.predicates.Register(typ, name, fn, options...)
	if ok {
		f.predicateEpoch++
	}
	return ok
}

// Close drops the form's predicate scope from a shared registry.
func (f *Form) Close() {
	f.predicates.DropScope(f.scope)
}

func cloneDefinition(def model.FormDefinition) model.FormDefinition {
	out := def
	out.Fields = cloneFields(def.Fields)
	return out
}

func cloneFields(fields []model.FieldDefinition) []model.FieldDefinition {
	if fields == nil {
		return nil
	}
	out := make([]model.FieldDefinition, len(fields))
	for i, field := range fields {
		field.Validation = append([]model.Rule(nil), field.Validation...)
		field.ShowIf = append([]model.RenderRuleGroup(nil), field.ShowIf...)
		field.Fields = cloneFields(field.Fields)
		out[i] = field
	}
	return out
}
