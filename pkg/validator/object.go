package validator

import (
	"sort"
)

// DependencyPair whitelists the edge Field -> Dependency when checking the
// object for dependency cycles.
type DependencyPair struct {
	Field      string
	Dependency string
}

// ObjectSchema validates a flat map of field values against per-field
// schemas.
type ObjectSchema struct {
	shape    map[string]*Schema
	order    []string
	excludes []DependencyPair
}

// Result is the outcome of validating an object.
type Result struct {
	// Value holds the cast values of registered fields. Absent values are
	// omitted and unregistered keys are stripped.
	Value    map[string]any
	Errors   map[string]Issues
	Warnings map[string]Issues
}

// Valid reports whether no blocking issue was found.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns the blocking issues as an error, ordered by field id.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	ids := make([]string, 0, len(r.Errors))
	for id := range r.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var all Issues
	for _, id := range ids {
		all = append(all, r.Errors[id]...)
	}
	return all
}

// NewObject builds the composite. Fields are ordered so dependencies are
// validated first; a cycle made of edges that are not whitelisted in excludes
// returns a *CycleError.
func NewObject(shape map[string]*Schema, excludes ...DependencyPair) (*ObjectSchema, error) {
	copied := make(map[string]*Schema, len(shape))
	for id, schema := range shape {
		if schema == nil {
			schema = New("")
		}
		copied[id] = schema
	}
	order, err := topoSort(copied, excludes)
	if err != nil {
		return nil, err
	}
	return &ObjectSchema{
		shape:    copied,
		order:    order,
		excludes: append([]DependencyPair(nil), excludes...),
	}, nil
}

// Fields returns the field ids in validation order.
func (o *ObjectSchema) Fields() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.order...)
}

// Field returns the schema registered for id.
func (o *ObjectSchema) Field(id string) (*Schema, bool) {
	if o == nil {
		return nil, false
	}
	schema, ok := o.shape[id]
	return schema, ok
}

// Excludes returns the whitelisted dependency pairs.
func (o *ObjectSchema) Excludes() []DependencyPair {
	if o == nil {
		return nil
	}
	return append([]DependencyPair(nil), o.excludes...)
}

// Validate checks every registered field. values is also exposed to tests
// as the enclosing object.
func (o *ObjectSchema) Validate(values map[string]any, scope string) Result {
	result := Result{Value: map[string]any{}}
	if o == nil {
		return result
	}
	for _, id := range o.order {
		ctx := Context{Field: id, Parent: values, Scope: scope}
		cast, issues := o.shape[id].Validate(values[id], ctx)
		if cast != nil {
			result.Value[id] = cast
		}
		if blocking := issues.Blocking(); len(blocking) > 0 {
			if result.Errors == nil {
				result.Errors = map[string]Issues{}
			}
			result.Errors[id] = blocking
		}
		if soft := issues.Soft(); len(soft) > 0 {
			if result.Warnings == nil {
				result.Warnings = map[string]Issues{}
			}
			result.Warnings[id] = soft
		}
	}
	return result
}

// ValidateField checks a single registered field.
func (o *ObjectSchema) ValidateField(id string, values map[string]any, scope string) (Issues, bool) {
	schema, ok := o.Field(id)
	if !ok {
		return nil, false
	}
	_, issues := schema.Validate(values[id], Context{Field: id, Parent: values, Scope: scope})
	return issues, true
}

func topoSort(shape map[string]*Schema, excludes []DependencyPair) ([]string, error) {
	skip := make(map[DependencyPair]struct{}, len(excludes))
	for _, pair := range excludes {
		skip[pair] = struct{}{}
	}

	ids := make([]string, 0, len(shape))
	for id := range shape {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	indegree := make(map[string]int, len(ids))
	dependents := make(map[string][]string, len(ids))
	for _, id := range ids {
		indegree[id] += 0
		for _, dep := range shape[id].Dependencies() {
			if dep == id {
				continue
			}
			if _, ok := shape[dep]; !ok {
				continue
			}
			if _, ok := skip[DependencyPair{Field: id, Dependency: dep}]; ok {
				continue
			}
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []string
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}
	order := make([]string, 0, len(ids))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		var released []string
		for _, next := range dependents[id] {
			indegree[next]--
			if indegree[next] == 0 {
				released = append(released, next)
			}
		}
		sort.Strings(released)
		ready = append(ready, released...)
	}

	if len(order) != len(ids) {
		var cyclic []string
		for _, id := range ids {
			if indegree[id] > 0 {
				cyclic = append(cyclic, id)
			}
		}
		return nil, &CycleError{Fields: cyclic}
	}
	return order, nil
}
