package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/schema"
)

// Transformer rewrites a definition before it is mounted.
type Transformer interface {
	Transform(ctx context.Context, def *model.FormDefinition) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, def *model.FormDefinition) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, def *model.FormDefinition) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, def)
}

// PresetTransformer applies declarative overrides loaded from JSON or YAML:
//
//	restoreMode: user-input
//	fields:
//	  company:
//	    label: Company
//	    restoreMode: default-value
//	    default: ACME
//	    validation: [{required: true}]
//	    showIf: [{kind: [{equals: company}]}]
//
// Validation rules are appended; showIf and showIfExpr replace the field's
// own.
type PresetTransformer struct {
	preset preset
}

type preset struct {
	RestoreMode model.RestoreMode      `json:"restoreMode" yaml:"restoreMode"`
	Fields      map[string]fieldPreset `json:"fields" yaml:"fields"`
}

type fieldPreset struct {
	Label       string                  `json:"label" yaml:"label"`
	Default     any                     `json:"default" yaml:"default"`
	RestoreMode model.RestoreMode       `json:"restoreMode" yaml:"restoreMode"`
	Validation  []model.Rule            `json:"validation" yaml:"validation"`
	ShowIf      []model.RenderRuleGroup `json:"showIf" yaml:"showIf"`
	ShowIfExpr  string                  `json:"showIfExpr" yaml:"showIfExpr"`
}

// NewPresetTransformer parses a preset document. The format is detected from
// the payload.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	doc, err := schema.NewDocument(schema.SourceFromFS("preset"), data)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: %w", err)
	}
	var p preset
	if err := doc.Decode(&p); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	if _, err := model.ParseRestoreMode(string(p.RestoreMode)); err != nil {
		return nil, fmt.Errorf("preset transformer: %w", err)
	}
	return &PresetTransformer{preset: p}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the preset onto def. Unknown field ids are an error.
func (t *PresetTransformer) Transform(ctx context.Context, def *model.FormDefinition) error {
	if def == nil {
		return errors.New("preset transformer: definition is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.preset.RestoreMode != "" {
		def.RestoreMode = t.preset.RestoreMode
	}

	ids := make([]string, 0, len(t.preset.Fields))
	for id := range t.preset.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		field := findField(def.Fields, id)
		if field == nil {
			return fmt.Errorf("preset transformer: field %q not found", id)
		}
		applyFieldPreset(field, t.preset.Fields[id])
	}
	return nil
}

func applyFieldPreset(field *model.FieldDefinition, patch fieldPreset) {
	if patch.Label != "" {
		field.Label = patch.Label
	}
	if patch.Default != nil {
		field.Default = patch.Default
	}
	if patch.RestoreMode != "" {
		field.RestoreMode = patch.RestoreMode
	}
	if len(patch.Validation) > 0 {
		field.Validation = append(append([]model.Rule(nil), field.Validation...), patch.Validation...)
	}
	if len(patch.ShowIf) > 0 {
		field.ShowIf = patch.ShowIf
	}
	if patch.ShowIfExpr != "" {
		field.ShowIfExpr = patch.ShowIfExpr
	}
}

func findField(fields []model.FieldDefinition, id string) *model.FieldDefinition {
	for idx := range fields {
		field := &fields[idx]
		if field.ID == id {
			return field
		}
		if nested := findField(field.Fields, id); nested != nil {
			return nested
		}
	}
	return nil
}
