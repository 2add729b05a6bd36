package compiler

import (
	"errors"

	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
	"github.com/goliatone/go-formrules/pkg/validator"
)

// Option customises a Compiler.
type Option func(*Compiler)

// WithLogger routes configuration warnings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPredicates sets the registry used for custom conditions.
func WithPredicates(registry *predicate.Registry) Option {
	return func(c *Compiler) {
		if registry != nil {
			c.predicates = registry
		}
	}
}

// WithScope resolves custom conditions against a scope-local table first.
func WithScope(scope string) Option {
	return func(c *Compiler) {
		c.scope = scope
	}
}

// Compiler is stateless between calls; compiling the same registry twice
// yields equivalent validators.
type Compiler struct {
	predicates *predicate.Registry
	logger     *zap.Logger
	scope      string
}

// New constructs a Compiler.
func New(options ...Option) *Compiler {
	c := &Compiler{}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	c.applyDefaults()
	return c
}

func (c *Compiler) applyDefaults() {
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.predicates == nil {
		c.predicates = predicate.NewRegistry(predicate.WithLogger(c.logger))
	}
}

// Scope returns the predicate scope used for custom conditions.
func (c *Compiler) Scope() string {
	return c.scope
}

func (c *Compiler) collector() *collector {
	return &collector{logger: c.logger, scope: c.scope}
}

// Composite is the validator assembled from a registry snapshot.
type Composite struct {
	object   *validator.ObjectSchema
	pairs    []validator.DependencyPair
	warnings []Warning
	scope    string
}

// Validate runs every registered field's schema against values.
func (c *Composite) Validate(values map[string]any) validator.Result {
	return c.object.Validate(values, c.scope)
}

// ValidateField runs a single field's schema. The boolean is false when the
// field is not part of the composite.
func (c *Composite) ValidateField(id string, values map[string]any) (validator.Issues, bool) {
	return c.object.ValidateField(id, values, c.scope)
}

// Fields lists the compiled fields in validation order.
func (c *Composite) Fields() []string {
	return c.object.Fields()
}

// Field returns the compiled schema for id.
func (c *Composite) Field(id string) (*validator.Schema, bool) {
	return c.object.Field(id)
}

// DependencyPairs returns the deduplicated pairs passed to the cycle guard.
func (c *Composite) DependencyPairs() []validator.DependencyPair {
	return append([]validator.DependencyPair(nil), c.pairs...)
}

// Warnings returns the configuration problems found while compiling.
func (c *Composite) Warnings() []Warning {
	return append([]Warning(nil), c.warnings...)
}

// BuildSchema compiles every registered field into a composite validator.
func (c *Compiler) BuildSchema(registry *ValidationRegistry) *Composite {
	if registry == nil {
		registry = NewValidationRegistry()
	}
	col := c.collector()
	ids := registry.IDs()
	shape := make(map[string]*validator.Schema, len(ids))
	var pairs []validator.DependencyPair
	for _, id := range ids {
		schema, fieldPairs := c.buildField(id, registry, col)
		shape[id] = schema
		pairs = append(pairs, fieldPairs...)
	}
	pairs = dedupePairs(pairs)

	object, err := validator.NewObject(shape, pairs...)
	if err != nil {
		// Every walked edge is whitelisted above, so this only triggers when a
		// schema carries branches that did not come from its rules.
		var cycle *validator.CycleError
		if errors.As(err, &cycle) {
			for _, id := range cycle.Fields {
				col.add(Warning{Kind: WarnDependencyCycle, Field: id, Reason: err.Error()})
			}
		}
		object, _ = validator.NewObject(shape, allEdges(shape)...)
	}

	return &Composite{
		object:   object,
		pairs:    pairs,
		warnings: col.warnings,
		scope:    c.scope,
	}
}

// BuildFieldSchema compiles a single registered field.
func (c *Compiler) BuildFieldSchema(id string, registry *ValidationRegistry) (*validator.Schema, []validator.DependencyPair, []Warning) {
	col := c.collector()
	schema, pairs := c.buildField(id, registry, col)
	return schema, dedupePairs(pairs), col.warnings
}

func (c *Compiler) buildField(id string, registry *ValidationRegistry, col *collector) (*validator.Schema, []validator.DependencyPair) {
	cfg, ok := registry.Get(id)
	if !ok {
		return validator.New(model.SchemaMixed), nil
	}
	bound, pairs := c.bindRules(id, cfg.Rules, registry, col)
	return c.mapRules(id, cfg.base(), bound, col), pairs
}

// MapRules folds bound rules onto base.
func (c *Compiler) MapRules(field string, base *validator.Schema, rules []BoundRule) (*validator.Schema, []Warning) {
	col := c.collector()
	schema := c.mapRules(field, base, rules, col)
	return schema, col.warnings
}

func (c *Compiler) mapRules(field string, base *validator.Schema, rules []BoundRule, col *collector) *validator.Schema {
	schema := base
	if schema == nil {
		schema = validator.New(model.SchemaMixed)
	}
	for _, bound := range rules {
		for _, note := range bound.Rule.Malformed {
			col.add(Warning{Kind: WarnMalformedRule, Field: field, Reason: note})
		}
		opts := validator.TestOptions{Message: bound.Rule.ErrorMessage, Soft: bound.Rule.Soft}
		schema, _ = c.applyConditions(field, "", schema, bound.Rule.Conditions, opts, col)
		for _, when := range bound.When {
			schema = c.applyWhen(field, schema, when, col)
		}
		schema = schema.NormalizeEmpty()
	}
	return schema
}

// applyConditions folds set onto schema. The boolean is false when at least
// one condition was skipped. dependency names the when-clause field whose
// match groups are being compiled, if any.
func (c *Compiler) applyConditions(field, dependency string, schema *validator.Schema, set model.ConditionSet, opts validator.TestOptions, col *collector) (*validator.Schema, bool) {
	complete := true
	for _, cond := range set {
		name := predicate.ConditionName(cond.Name)
		if native, ok := nativeMethods[name]; ok {
			if err := predicate.ValidateArg(name, cond.Arg); err != nil {
				col.add(Warning{Kind: WarnInvalidArgument, Field: field, Condition: cond.Name, Dependency: dependency, Reason: err.Error()})
				complete = false
				continue
			}
			schema = native(schema, cond.Arg, opts)
			continue
		}

		resolved, ok := c.predicates.Lookup(schema.Type(), cond.Name, c.scope)
		if !ok {
			col.add(Warning{Kind: WarnUnknownCondition, Field: field, Condition: cond.Name, Dependency: dependency})
			complete = false
			continue
		}
		arg := cond.Arg
		fn := resolved.Fn
		schema = schema.Test(validator.Test{
			Name:     cond.Name,
			Message:  opts.Message,
			Params:   map[string]any{"arg": arg},
			Soft:     opts.Soft,
			Presence: resolved.Presence,
			Fn: func(value any, ctx validator.Context) bool {
				return fn(value, arg, ctx)
			},
		})
	}
	return schema, complete
}

func (c *Compiler) applyWhen(field string, schema *validator.Schema, when BoundWhen, col *collector) *validator.Schema {
	if when.Missing || when.Dependency == nil {
		return schema
	}
	match, ok := c.matcher(field, when, col)
	if !ok {
		return schema
	}
	typ := schema.Type()
	then := c.mapRules(field, validator.New(typ), when.Then, col)
	var otherwise *validator.Schema
	if len(when.Otherwise) > 0 {
		otherwise = c.mapRules(field, validator.New(typ), when.Otherwise, col)
	}
	return schema.When(when.Field, match, then, otherwise)
}

// matcher builds the match function for a when-clause. A condition group
// that lost a condition while compiling never matches; when every group is
// lost the boolean is false and the clause is inert.
func (c *Compiler) matcher(field string, when BoundWhen, col *collector) (validator.MatchFunc, bool) {
	if !when.Is.IsGroups() {
		literal := when.Is.Value()
		return func(dependency any, _ validator.Context) bool {
			return MatchLiteral(literal, dependency)
		}, true
	}

	sets := when.Is.ConditionGroups()
	groups := make([]*validator.Schema, 0, len(sets))
	for _, set := range sets {
		group, complete := c.applyConditions(field, when.Field, when.Dependency.Strict(), set, validator.TestOptions{}, col)
		if !complete {
			continue
		}
		groups = append(groups, group)
	}
	if len(sets) > 0 && len(groups) == 0 {
		return nil, false
	}
	dependencyID := when.Field
	return func(dependency any, ctx validator.Context) bool {
		depCtx := validator.Context{Field: dependencyID, Parent: ctx.Parent, Scope: ctx.Scope}
		for _, group := range groups {
			if group.IsValid(dependency, depCtx) {
				return true
			}
		}
		return false
	}, true
}

// MatchLiteral compares a literal match spec against a dependency value. A
// list literal matches the identical list or any of its elements.
func MatchLiteral(literal, value any) bool {
	if predicate.Equal(literal, value) {
		return true
	}
	if literal == nil {
		return false
	}
	if _, isString := literal.(string); isString {
		return false
	}
	if _, ok := predicate.Size(literal); !ok {
		return false
	}
	for _, item := range predicate.AsList(literal) {
		if predicate.Equal(item, value) {
			return true
		}
	}
	return false
}

func allEdges(shape map[string]*validator.Schema) []validator.DependencyPair {
	var pairs []validator.DependencyPair
	for id, schema := range shape {
		for _, dep := range schema.Dependencies() {
			pairs = append(pairs, validator.DependencyPair{Field: id, Dependency: dep})
		}
	}
	return pairs
}

