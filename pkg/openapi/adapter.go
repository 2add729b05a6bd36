package openapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
	"github.com/goliatone/go-formrules/pkg/schema"
)

// DefaultAdapterName is the registry identifier of the OpenAPI adapter.
const DefaultAdapterName = "openapi"

// Adapter exposes the parser behind schema.FormatAdapter.
type Adapter struct {
	parser Parser
}

var _ schema.FormatAdapter = (*Adapter)(nil)

// NewAdapter constructs an adapter around parser.
func NewAdapter(parser Parser) *Adapter {
	return &Adapter{parser: parser}
}

// Name returns the adapter registry identifier.
func (a *Adapter) Name() string {
	return DefaultAdapterName
}

// Detect reports whether the raw payload appears to be OpenAPI.
func (a *Adapter) Detect(_ schema.Source, raw []byte) bool {
	return detectOpenAPI(raw)
}

// Definitions maps every operation with an object request body to a form
// definition keyed by operation id.
func (a *Adapter) Definitions(ctx context.Context, doc schema.Document) (map[string]model.FormDefinition, error) {
	if a == nil || a.parser == nil {
		return nil, errors.New("openapi adapter: parser is nil")
	}
	operations, err := a.parser.Operations(ctx, doc)
	if err != nil {
		return nil, err
	}

	out := make(map[string]model.FormDefinition, len(operations))
	for id, op := range operations {
		if len(op.RequestBody.Properties) == 0 {
			continue
		}
		def, err := FormFromOperation(op)
		if err != nil {
			return nil, fmt.Errorf("openapi adapter: operation %q: %w", id, err)
		}
		out[id] = def
	}
	if len(out) == 0 {
		return nil, errors.New("openapi adapter: no operation declares an object request body")
	}
	return out, nil
}

// FormFromOperation converts an operation request body into a form definition.
func FormFromOperation(op Operation) (model.FormDefinition, error) {
	def := model.FormDefinition{
		ID:    op.ID,
		Title: firstNonEmpty(op.Summary, op.RequestBody.Title),
	}
	mode, err := restoreModeExtension(op.Extensions)
	if err != nil {
		return model.FormDefinition{}, err
	}
	if mode == "" {
		mode, err = restoreModeExtension(op.RequestBody.Extensions)
		if err != nil {
			return model.FormDefinition{}, err
		}
	}
	def.RestoreMode = mode

	fields, err := fieldsFromProperties(op.RequestBody, "")
	if err != nil {
		return model.FormDefinition{}, err
	}
	def.Fields = fields
	if err := def.Check(); err != nil {
		return model.FormDefinition{}, err
	}
	return def, nil
}

func fieldsFromProperties(parent Schema, prefix string) ([]model.FieldDefinition, error) {
	names := make([]string, 0, len(parent.Properties))
	for name := range parent.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]model.FieldDefinition, 0, len(names))
	for _, name := range names {
		field, err := fieldFromSchema(prefix+name, name, parent.Properties[name], parent.IsRequired(name))
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prefix+name, err)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func fieldFromSchema(id, name string, prop Schema, required bool) (model.FieldDefinition, error) {
	field := model.FieldDefinition{
		ID:      id,
		Type:    model.ParseSchemaType(prop.Type),
		Label:   labelFor(name, prop),
		Default: prop.Default,
	}

	if prop.Type == "object" && len(prop.Properties) > 0 {
		children, err := fieldsFromProperties(prop, id+".")
		if err != nil {
			return model.FieldDefinition{}, err
		}
		field.Fields = children
	}

	if conditions := constraintConditions(prop, required); len(conditions) > 0 {
		field.Validation = append(field.Validation, model.Rule{Conditions: conditions})
	}

	ext := prop.Extensions
	if raw, ok := ext[ExtensionValidation]; ok {
		field.Validation = append(field.Validation, model.RulesFromAny(raw)...)
	}
	if raw, ok := ext[ExtensionShowIf]; ok {
		groups, err := model.RenderRulesFromAny(raw)
		if err != nil {
			return model.FieldDefinition{}, err
		}
		field.ShowIf = groups
	}
	if raw, ok := ext[ExtensionShowIfExpr]; ok {
		expr, isString := raw.(string)
		if !isString {
			return model.FieldDefinition{}, fmt.Errorf("%s must be a string, got %T", ExtensionShowIfExpr, raw)
		}
		field.ShowIfExpr = expr
	}
	mode, err := restoreModeExtension(ext)
	if err != nil {
		return model.FieldDefinition{}, err
	}
	field.RestoreMode = mode
	return field, nil
}

// constraintConditions maps JSON Schema keywords onto the built-in rules.
func constraintConditions(prop Schema, required bool) model.ConditionSet {
	raw := map[string]any{}
	if required {
		raw[string(predicate.Required)] = true
	}
	switch model.ParseSchemaType(prop.Type) {
	case model.SchemaString:
		if prop.MinLength != nil && *prop.MinLength > 0 {
			raw[string(predicate.Min)] = float64(*prop.MinLength)
		}
		if prop.MaxLength != nil {
			raw[string(predicate.Max)] = float64(*prop.MaxLength)
		}
		if prop.Pattern != "" {
			raw[string(predicate.Matches)] = prop.Pattern
		}
		switch strings.ToLower(prop.Format) {
		case "email":
			raw[string(predicate.Email)] = true
		case "uri", "url":
			raw[string(predicate.URL)] = true
		case "uuid":
			raw[string(predicate.UUID)] = true
		}
	case model.SchemaNumber:
		if prop.Minimum != nil {
			raw[string(predicate.Min)] = *prop.Minimum
		}
		if prop.Maximum != nil {
			raw[string(predicate.Max)] = *prop.Maximum
		}
		if strings.EqualFold(prop.Type, "integer") {
			raw[string(predicate.Integer)] = true
		}
	}
	if len(prop.Enum) > 0 {
		raw[string(predicate.OneOf)] = append([]any(nil), prop.Enum...)
	}
	if len(raw) == 0 {
		return nil
	}
	return model.ConditionSetFromMap(raw)
}

func restoreModeExtension(ext map[string]any) (model.RestoreMode, error) {
	raw, ok := ext[ExtensionRestoreMode]
	if !ok || raw == nil {
		return "", nil
	}
	text, isString := raw.(string)
	if !isString {
		return "", fmt.Errorf("%s must be a string, got %T", ExtensionRestoreMode, raw)
	}
	return model.ParseRestoreMode(text)
}

func labelFor(name string, prop Schema) string {
	if label, ok := prop.Extensions[ExtensionLabel].(string); ok && label != "" {
		return label
	}
	return firstNonEmpty(prop.Title, name)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func detectOpenAPI(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return false
	}
	if trimmed[0] == '{' {
		var payload map[string]any
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			_, openapi := payload["openapi"]
			_, swagger := payload["swagger"]
			return openapi || swagger
		}
	}
	lower := strings.ToLower(string(trimmed))
	return strings.HasPrefix(lower, "openapi:") || strings.Contains(lower, "\nopenapi:") ||
		strings.HasPrefix(lower, "swagger:") || strings.Contains(lower, "\nswagger:")
}
