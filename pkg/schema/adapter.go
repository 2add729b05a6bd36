package schema

import (
	"context"

	"github.com/goliatone/go-formrules/pkg/model"
)

// FormatAdapter turns a loaded document into one or more form definitions
// keyed by form id.
type FormatAdapter interface {
	Name() string
	Detect(src Source, raw []byte) bool
	Definitions(ctx context.Context, doc Document) (map[string]model.FormDefinition, error)
}

// NativeAdapterName identifies documents written directly in the rule
// vocabulary.
const NativeAdapterName = "formrules"

// NativeAdapter reads form definitions authored as JSON or YAML. A document
// holds either a single definition (top-level "fields") or a "forms" map of
// definitions keyed by id.
type NativeAdapter struct{}

// Name returns the adapter identifier.
func (NativeAdapter) Name() string {
	return NativeAdapterName
}

// Detect reports whether the payload looks like a native definition.
func (NativeAdapter) Detect(src Source, raw []byte) bool {
	if src == nil {
		src = SourceFromFS("inline")
	}
	doc, err := NewDocument(src, raw)
	if err != nil {
		return false
	}
	generic, err := doc.Generic()
	if err != nil {
		return false
	}
	if _, ok := generic["openapi"]; ok {
		return false
	}
	_, hasFields := generic["fields"]
	_, hasForms := generic["forms"]
	return hasFields || hasForms
}

type nativeBundle struct {
	Forms map[string]model.FormDefinition `json:"forms" yaml:"forms"`
}

// Definitions decodes the document.
func (NativeAdapter) Definitions(ctx context.Context, doc Document) (map[string]model.FormDefinition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	generic, err := doc.Generic()
	if err != nil {
		return nil, err
	}
	if _, ok := generic["forms"]; ok {
		var bundle nativeBundle
		if err := doc.Decode(&bundle); err != nil {
			return nil, err
		}
		out := make(map[string]model.FormDefinition, len(bundle.Forms))
		for id, def := range bundle.Forms {
			if def.ID == "" {
				def.ID = id
			}
			if err := def.Check(); err != nil {
				return nil, err
			}
			out[id] = def
		}
		return out, nil
	}

	def, err := doc.Definition()
	if err != nil {
		return nil, err
	}
	id := def.ID
	if id == "" {
		id = "default"
		def.ID = id
	}
	return map[string]model.FormDefinition{id: def}, nil
}
