package model

import (
	"fmt"
	"strings"
)

// SchemaType enumerates the value kinds a field can declare.
type SchemaType string

const (
	SchemaString  SchemaType = "string"
	SchemaNumber  SchemaType = "number"
	SchemaBoolean SchemaType = "boolean"
	SchemaArray   SchemaType = "array"
	SchemaObject  SchemaType = "object"
	SchemaMixed   SchemaType = "mixed"
)

// Valid reports whether t is one of the supported schema types.
func (t SchemaType) Valid() bool {
	switch t {
	case SchemaString, SchemaNumber, SchemaBoolean, SchemaArray, SchemaObject, SchemaMixed:
		return true
	}
	return false
}

// ParseSchemaType normalises a raw type name. Unknown or empty names resolve to
// SchemaMixed; "integer" is accepted as an alias of number.
func ParseSchemaType(raw string) SchemaType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "string":
		return SchemaString
	case "number", "integer":
		return SchemaNumber
	case "boolean", "bool":
		return SchemaBoolean
	case "array":
		return SchemaArray
	case "object":
		return SchemaObject
	default:
		return SchemaMixed
	}
}

// RestoreMode decides which value a field receives when it transitions from
// hidden back to visible.
type RestoreMode string

const (
	RestoreNone         RestoreMode = "none"
	RestoreDefaultValue RestoreMode = "default-value"
	RestoreUserInput    RestoreMode = "user-input"
)

// ParseRestoreMode validates a textual restore mode. The empty string maps to
// RestoreNone.
func ParseRestoreMode(raw string) (RestoreMode, error) {
	switch RestoreMode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RestoreNone:
		return RestoreNone, nil
	case RestoreDefaultValue:
		return RestoreDefaultValue, nil
	case RestoreUserInput:
		return RestoreUserInput, nil
	}
	return "", fmt.Errorf("model: unknown restore mode %q", raw)
}

// FieldDefinition describes one schema-declared input. Fields with children
// act as containers: hiding a container hides every descendant.
type FieldDefinition struct {
	ID          string            `json:"id" yaml:"id"`
	Type        SchemaType        `json:"type,omitempty" yaml:"type,omitempty"`
	Label       string            `json:"label,omitempty" yaml:"label,omitempty"`
	Default     any               `json:"default,omitempty" yaml:"default,omitempty"`
	Validation  []Rule            `json:"validation,omitempty" yaml:"validation,omitempty"`
	ShowIf      []RenderRuleGroup `json:"showIf,omitempty" yaml:"showIf,omitempty"`
	ShowIfExpr  string            `json:"showIfExpr,omitempty" yaml:"showIfExpr,omitempty"`
	RestoreMode RestoreMode       `json:"restoreMode,omitempty" yaml:"restoreMode,omitempty"`
	Fields      []FieldDefinition `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// IsContainer reports whether the field groups other fields.
func (f FieldDefinition) IsContainer() bool {
	return len(f.Fields) > 0
}

// SchemaType returns the declared type, defaulting to mixed.
func (f FieldDefinition) SchemaType() SchemaType {
	if f.Type.Valid() {
		return f.Type
	}
	return ParseSchemaType(string(f.Type))
}

// FormDefinition is the root document loaded from JSON or YAML.
type FormDefinition struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string            `json:"title,omitempty" yaml:"title,omitempty"`
	RestoreMode RestoreMode       `json:"restoreMode,omitempty" yaml:"restoreMode,omitempty"`
	Fields      []FieldDefinition `json:"fields" yaml:"fields"`
}

// Walk visits every field depth-first, parents before children. parent is the
// id of the enclosing container ("" for top-level fields).
func (d FormDefinition) Walk(fn func(field FieldDefinition, parent string) error) error {
	return walkFields(d.Fields, "", fn)
}

func walkFields(fields []FieldDefinition, parent string, fn func(FieldDefinition, string) error) error {
	for _, field := range fields {
		if err := fn(field, parent); err != nil {
			return err
		}
		if err := walkFields(field.Fields, field.ID, fn); err != nil {
			return err
		}
	}
	return nil
}

// Field finds a field definition by id anywhere in the tree.
func (d FormDefinition) Field(id string) (FieldDefinition, bool) {
	var (
		found FieldDefinition
		ok    bool
	)
	_ = d.Walk(func(field FieldDefinition, _ string) error {
		if !ok && field.ID == id {
			found, ok = field, true
		}
		return nil
	})
	return found, ok
}

// Check reports structural problems: empty ids, duplicate ids, and invalid
// restore modes.
func (d FormDefinition) Check() error {
	seen := make(map[string]struct{})
	if _, err := ParseRestoreMode(string(d.RestoreMode)); err != nil {
		return err
	}
	return d.Walk(func(field FieldDefinition, parent string) error {
		id := strings.TrimSpace(field.ID)
		if id == "" {
			if parent == "" {
				return fmt.Errorf("model: field id is required")
			}
			return fmt.Errorf("model: field id is required (child of %q)", parent)
		}
		if _, exists := seen[id]; exists {
			return fmt.Errorf("model: duplicate field id %q", id)
		}
		seen[id] = struct{}{}
		if _, err := ParseRestoreMode(string(field.RestoreMode)); err != nil {
			return fmt.Errorf("model: field %q: %w", id, err)
		}
		return nil
	})
}
