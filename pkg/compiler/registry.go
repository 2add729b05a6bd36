package compiler

import (
	"sort"
	"sync"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/validator"
)

// FieldValidationConfig is what a mounted field contributes to compilation:
// its base type schema and its declared rules.
type FieldValidationConfig struct {
	Type   model.SchemaType
	Schema *validator.Schema
	Rules  []model.Rule
}

// NewFieldConfig builds the config for a field of the given type.
func NewFieldConfig(typ model.SchemaType, rules []model.Rule) FieldValidationConfig {
	if !typ.Valid() {
		typ = model.SchemaMixed
	}
	return FieldValidationConfig{
		Type:   typ,
		Schema: validator.New(typ),
		Rules:  rules,
	}
}

// FieldConfigFor derives the config from a field definition.
func FieldConfigFor(field model.FieldDefinition) FieldValidationConfig {
	return NewFieldConfig(field.SchemaType(), field.Validation)
}

// RegistryFor registers every non-container field of def regardless of
// visibility. Static reports use it to compile rules a live form would only
// reach once hidden fields are revealed.
func RegistryFor(def model.FormDefinition) *ValidationRegistry {
	reg := NewValidationRegistry()
	_ = def.Walk(func(field model.FieldDefinition, _ string) error {
		if !field.IsContainer() {
			reg.Set(field.ID, FieldConfigFor(field))
		}
		return nil
	})
	return reg
}

func (c FieldValidationConfig) base() *validator.Schema {
	if c.Schema != nil {
		return c.Schema
	}
	return validator.New(c.Type)
}

// ValidationRegistry is the set of fields that currently participate in
// validation. Hidden fields must not have an entry.
type ValidationRegistry struct {
	mu      sync.RWMutex
	entries map[string]FieldValidationConfig
	version uint64
}

// NewValidationRegistry returns an empty registry.
func NewValidationRegistry() *ValidationRegistry {
	return &ValidationRegistry{entries: make(map[string]FieldValidationConfig)}
}

// Set registers or replaces the config for id.
func (r *ValidationRegistry) Set(id string, cfg FieldValidationConfig) {
	if id == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = cfg
	r.version++
}

// Delete removes id and reports whether it was registered.
func (r *ValidationRegistry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return false
	}
	delete(r.entries, id)
	r.version++
	return true
}

// Get returns the config registered for id.
func (r *ValidationRegistry) Get(id string) (FieldValidationConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.entries[id]
	return cfg, ok
}

// Has reports whether id is registered.
func (r *ValidationRegistry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// IDs lists the registered field ids in sorted order.
func (r *ValidationRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered fields.
func (r *ValidationRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Version increments on every mutation. Callers use it to skip rebuilding an
// unchanged registry.
func (r *ValidationRegistry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Snapshot returns a copy of the registered entries.
func (r *ValidationRegistry) Snapshot() map[string]FieldValidationConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]FieldValidationConfig, len(r.entries))
	for id, cfg := range r.entries {
		out[id] = cfg
	}
	return out
}
