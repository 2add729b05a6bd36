package validator

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
)

// Context carries the field path and the enclosing object into tests.
type Context = predicate.Context

// TestFunc is a synchronous check. It receives the cast value.
type TestFunc func(value any, ctx Context) bool

// Test is a named check attached to a schema.
type Test struct {
	Name    string
	Message string
	Params  map[string]any
	Soft    bool
	// Presence tests also run when the value is absent. Everything else is
	// skipped for absent values unless the schema is strict.
	Presence bool
	Fn       TestFunc
}

// TransformFunc rewrites a value before tests run.
type TransformFunc func(value any) any

type transform struct {
	name string
	fn   TransformFunc
}

// MatchFunc decides which branch of a conditional applies, given the value
// of the dependency field.
type MatchFunc func(dependency any, ctx Context) bool

type branch struct {
	dependency string
	match      MatchFunc
	then       *Schema
	otherwise  *Schema
}

// Schema is an immutable validator for a single value.
type Schema struct {
	typ        model.SchemaType
	strict     bool
	transforms []transform
	tests      []Test
	branches   []branch
}

// New returns an empty schema of the given type.
func New(typ model.SchemaType) *Schema {
	if !typ.Valid() {
		typ = model.SchemaMixed
	}
	return &Schema{typ: typ}
}

// Type returns the schema type.
func (s *Schema) Type() model.SchemaType {
	if s == nil {
		return model.SchemaMixed
	}
	return s.typ
}

// IsStrict reports whether absent values are tested.
func (s *Schema) IsStrict() bool {
	return s != nil && s.strict
}

// Clone returns an independent copy.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return New(model.SchemaMixed)
	}
	return &Schema{
		typ:        s.typ,
		strict:     s.strict,
		transforms: append([]transform(nil), s.transforms...),
		tests:      append([]Test(nil), s.tests...),
		branches:   append([]branch(nil), s.branches...),
	}
}

// Strict returns a copy that runs every test, including on absent values.
// Condition-group matches use strict clones so that an empty dependency does
// not satisfy a bound it never reached.
func (s *Schema) Strict() *Schema {
	out := s.Clone()
	out.strict = true
	return out
}

// Transform appends a named transform.
func (s *Schema) Transform(name string, fn TransformFunc) *Schema {
	out := s.Clone()
	if fn != nil {
		out.transforms = append(out.transforms, transform{name: name, fn: fn})
	}
	return out
}

// NormalizeEmpty appends the transform that maps empty strings, collections
// and maps to nil.
func (s *Schema) NormalizeEmpty() *Schema {
	return s.Transform("normalizeEmpty", predicate.Normalize)
}

// Test appends a check.
func (s *Schema) Test(test Test) *Schema {
	out := s.Clone()
	if test.Fn != nil {
		out.tests = append(out.tests, test)
	}
	return out
}

// Tests lists the attached check names in order.
func (s *Schema) Tests() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.tests))
	for _, test := range s.tests {
		names = append(names, test.Name)
	}
	return names
}

// When attaches a conditional branch. When match reports true for the
// dependency's current value, then validates the same value in addition to
// this schema; otherwise does the same for the negative case. Either branch
// may be nil.
func (s *Schema) When(dependency string, match MatchFunc, then, otherwise *Schema) *Schema {
	out := s.Clone()
	if dependency == "" || match == nil || (then == nil && otherwise == nil) {
		return out
	}
	out.branches = append(out.branches, branch{
		dependency: dependency,
		match:      match,
		then:       then,
		otherwise:  otherwise,
	})
	return out
}

// Dependencies lists the sibling fields referenced by conditional branches,
// including branches nested inside other branches.
func (s *Schema) Dependencies() []string {
	if s == nil {
		return nil
	}
	seen := map[string]struct{}{}
	s.collectDependencies(seen)
	out := make([]string, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

func (s *Schema) collectDependencies(seen map[string]struct{}) {
	if s == nil {
		return
	}
	for _, b := range s.branches {
		seen[b.dependency] = struct{}{}
		b.then.collectDependencies(seen)
		b.otherwise.collectDependencies(seen)
	}
}

// Cast coerces value to the schema type when that is lossless and then runs
// the transforms in order.
func (s *Schema) Cast(value any) any {
	if s == nil {
		return value
	}
	out := coerce(s.typ, value)
	for _, t := range s.transforms {
		out = t.fn(out)
	}
	return out
}

// Validate casts value and runs type checks, tests and conditional branches.
// The cast value is returned together with every issue found; soft issues
// are included and flagged.
func (s *Schema) Validate(value any, ctx Context) (any, Issues) {
	if s == nil {
		return value, nil
	}
	cast := s.Cast(value)
	if cast != nil && !matchesType(s.typ, cast) {
		return cast, Issues{newIssue(ruleTypeError, "", ctx.Field, false, map[string]any{"type": string(s.typ)})}
	}

	var issues Issues
	for _, test := range s.tests {
		if cast == nil && !test.Presence && !s.strict {
			continue
		}
		if test.Fn(cast, ctx) {
			continue
		}
		issues = append(issues, newIssue(test.Name, test.Message, ctx.Field, test.Soft, test.Params))
	}

	for _, b := range s.branches {
		dependency, _ := ctx.Sibling(b.dependency)
		target := b.otherwise
		if b.match(dependency, ctx) {
			target = b.then
		}
		if target == nil {
			continue
		}
		_, branchIssues := target.Validate(cast, ctx)
		issues = append(issues, branchIssues...)
	}
	return cast, issues
}

// IsValid reports whether value passes without blocking issues.
func (s *Schema) IsValid(value any, ctx Context) bool {
	_, issues := s.Validate(value, ctx)
	return len(issues.Blocking()) == 0
}

func newIssue(rule, message, path string, soft bool, params map[string]any) Issue {
	if message == "" {
		message = DefaultMessage(rule)
	}
	return Issue{
		Path:    path,
		Rule:    rule,
		Message: FormatMessage(message, path, params),
		Soft:    soft,
		Params:  params,
	}
}

func coerce(typ model.SchemaType, value any) any {
	switch typ {
	case model.SchemaNumber:
		if s, ok := value.(string); ok {
			trimmed := strings.TrimSpace(s)
			if trimmed == "" {
				return value
			}
			if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(n) {
				return n
			}
			return value
		}
		if _, isBool := value.(bool); isBool {
			return value
		}
		if n, ok := predicate.ToFloat(value); ok {
			return n
		}
	case model.SchemaBoolean:
		if s, ok := value.(string); ok {
			switch strings.ToLower(strings.TrimSpace(s)) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	case model.SchemaString:
		switch v := value.(type) {
		case bool:
			return strconv.FormatBool(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return value
}

func matchesType(typ model.SchemaType, value any) bool {
	switch typ {
	case model.SchemaString:
		_, ok := value.(string)
		return ok
	case model.SchemaNumber:
		n, ok := predicate.ToFloat(value)
		return ok && !math.IsNaN(n)
	case model.SchemaBoolean:
		_, ok := value.(bool)
		return ok
	case model.SchemaArray:
		kind := reflect.ValueOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	case model.SchemaObject:
		return reflect.ValueOf(value).Kind() == reflect.Map
	}
	return true
}
