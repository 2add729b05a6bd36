package schema

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formrules/pkg/model"
)

// Format is the serialisation of a document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document wraps a raw payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument validates the inputs and copies raw.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("schema: source is required")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Document{}, errors.New("schema: raw document is empty")
	}
	return Document{source: src, raw: append([]byte(nil), raw...)}, nil
}

// MustNewDocument panics if the document cannot be created.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin of the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the origin identifier.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Format guesses the serialisation from the location extension, falling back
// to sniffing the first byte of the payload.
func (d Document) Format() Format {
	switch strings.ToLower(filepath.Ext(d.Location())) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return DetectFormat(d.raw)
}

// DetectFormat reports JSON for payloads starting with an object or array and
// YAML otherwise.
func DetectFormat(raw []byte) Format {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// Decode unmarshals the payload into out using the document's format.
func (d Document) Decode(out any) error {
	var err error
	switch d.Format() {
	case FormatJSON:
		err = json.Unmarshal(d.raw, out)
	default:
		err = yaml.Unmarshal(d.raw, out)
	}
	if err != nil {
		return fmt.Errorf("schema: decode %s: %w", d.Location(), err)
	}
	return nil
}

// Generic decodes the payload into plain maps and slices.
func (d Document) Generic() (map[string]any, error) {
	var out map[string]any
	if err := d.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// Definition decodes the payload as a form definition and checks it.
func (d Document) Definition() (model.FormDefinition, error) {
	var def model.FormDefinition
	if err := d.Decode(&def); err != nil {
		return model.FormDefinition{}, err
	}
	if err := def.Check(); err != nil {
		return model.FormDefinition{}, fmt.Errorf("schema: %s: %w", d.Location(), err)
	}
	return def, nil
}
