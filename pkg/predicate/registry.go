package predicate

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/model"
)

// Context exposes the enclosing object to predicates that compare siblings
// (equalsField and friends). Predicates must treat Parent as read-only.
type Context struct {
	Field  string
	Parent map[string]any
	Scope  string
}

// Sibling returns the value of another field in the enclosing object.
func (c Context) Sibling(id string) (any, bool) {
	if c.Parent == nil {
		return nil, false
	}
	value, ok := c.Parent[id]
	return value, ok
}

// Predicate is a pure, synchronous condition.
type Predicate func(value, arg any, ctx Context) bool

// Resolved is a registry hit.
type Resolved struct {
	Name string
	Fn   Predicate
	// Presence predicates decide for themselves how to treat absent values;
	// all others are skipped by optional schemas when nothing was entered.
	Presence bool
}

type entry struct {
	fn       Predicate
	presence bool
}

type typeTable map[model.SchemaType]map[string]entry

// Option configures a Registry.
type Option func(*Registry)

// WithLogger routes registry warnings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithoutBuiltins skips the builtin semantic predicates.
func WithoutBuiltins() Option {
	return func(r *Registry) {
		r.skipBuiltins = true
	}
}

// RegisterOption tunes a single registration.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	scope     string
	overwrite bool
	presence  bool
}

// InScope stores the predicate in a scope-local table.
func InScope(scope string) RegisterOption {
	return func(opts *registerOptions) {
		opts.scope = strings.TrimSpace(scope)
	}
}

// Overwrite replaces an existing predicate with the same name.
func Overwrite() RegisterOption {
	return func(opts *registerOptions) {
		opts.overwrite = true
	}
}

// Presence marks the predicate as deciding on absent values itself.
func Presence() RegisterOption {
	return func(opts *registerOptions) {
		opts.presence = true
	}
}

// Registry stores semantic predicates per schema type, globally and per
// scope. Scope-local tables take precedence during lookup.
type Registry struct {
	mu           sync.RWMutex
	global       typeTable
	scopes       map[string]typeTable
	logger       *zap.Logger
	skipBuiltins bool
}

// NewRegistry constructs a registry with the builtin semantic predicates.
func NewRegistry(options ...Option) *Registry {
	reg := &Registry{
		global: make(typeTable),
		scopes: make(map[string]typeTable),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(reg)
		}
	}
	if !reg.skipBuiltins {
		reg.registerBuiltins()
	}
	return reg
}

// Register adds fn under name for typ. Registering an existing name without
// Overwrite is a no-op that logs a warning. Structural names are reserved for
// the native validators and are rejected the same way. It reports whether the
// predicate was stored.
func (r *Registry) Register(typ model.SchemaType, name string, fn Predicate, options ...RegisterOption) bool {
	if r == nil || fn == nil {
		return false
	}
	name = strings.TrimSpace(name)
	if name == "" {
		r.logger.Warn("predicate: registration without a name ignored")
		return false
	}
	if !typ.Valid() {
		typ = model.SchemaMixed
	}
	opts := registerOptions{}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	if IsStructural(name) {
		r.logger.Warn("predicate: structural condition names are reserved",
			zap.String("condition", name),
			zap.String("scope", opts.scope),
		)
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	table := r.global
	if opts.scope != "" {
		table = r.scopes[opts.scope]
		if table == nil {
			table = make(typeTable)
			r.scopes[opts.scope] = table
		}
	}
	byName := table[typ]
	if byName == nil {
		byName = make(map[string]entry)
		table[typ] = byName
	}
	if _, exists := byName[name]; exists && !opts.overwrite {
		r.logger.Warn("predicate: duplicate registration ignored; pass Overwrite to replace",
			zap.String("condition", name),
			zap.String("type", string(typ)),
			zap.String("scope", opts.scope),
		)
		return false
	}
	byName[name] = entry{fn: fn, presence: opts.presence}
	return true
}

// Resolve finds a predicate by name regardless of schema type. The scope
// table is consulted first; within a table, mixed registrations win.
func (r *Registry) Resolve(name, scope string) (Predicate, bool) {
	resolved, ok := r.find("", name, scope)
	if !ok {
		return nil, false
	}
	return resolved.Fn, true
}

// Lookup finds the predicate for a specific schema type, falling back to
// mixed registrations and then to the global table.
func (r *Registry) Lookup(typ model.SchemaType, name, scope string) (Resolved, bool) {
	return r.find(typ, name, scope)
}

func (r *Registry) find(typ model.SchemaType, name, scope string) (Resolved, bool) {
	if r == nil {
		return Resolved{}, false
	}
	name = strings.TrimSpace(name)
	scope = strings.TrimSpace(scope)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if scope != "" {
		if e, ok := lookupTable(r.scopes[scope], typ, name); ok {
			return Resolved{Name: name, Fn: e.fn, Presence: e.presence}, true
		}
	}
	if e, ok := lookupTable(r.global, typ, name); ok {
		return Resolved{Name: name, Fn: e.fn, Presence: e.presence}, true
	}
	return Resolved{}, false
}

func lookupTable(table typeTable, typ model.SchemaType, name string) (entry, bool) {
	if table == nil {
		return entry{}, false
	}
	if typ != "" {
		if e, ok := table[typ][name]; ok {
			return e, true
		}
		e, ok := table[model.SchemaMixed][name]
		return e, ok
	}
	if e, ok := table[model.SchemaMixed][name]; ok {
		return e, true
	}
	types := make([]string, 0, len(table))
	for t := range table {
		types = append(types, string(t))
	}
	sort.Strings(types)
	for _, t := range types {
		if e, ok := table[model.SchemaType(t)][name]; ok {
			return e, true
		}
	}
	return entry{}, false
}

// Names lists the predicates visible from scope, sorted.
func (r *Registry) Names(scope string) []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	collect := func(table typeTable) {
		for _, byName := range table {
			for name := range byName {
				seen[name] = struct{}{}
			}
		}
	}
	collect(r.global)
	if scope != "" {
		collect(r.scopes[scope])
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DropScope removes every predicate registered in scope.
func (r *Registry) DropScope(scope string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scopes, strings.TrimSpace(scope))
}
