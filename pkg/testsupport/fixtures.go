// Package testsupport holds fixtures and helpers shared by package tests.
package testsupport

import (
	"os"
	"testing"

	"github.com/goliatone/go-formrules/pkg/form"
	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/schema"
)

// SignupDefinition is a small form whose company field appears only for
// company accounts.
const SignupDefinition = `
id: signup
fields:
  - id: kind
    type: string
    label: Account kind
    validation:
      - oneOf: [personal, company]
  - id: company
    type: string
    label: Company
    showIf:
      - kind:
          - equals: company
    validation:
      - required: true
        min: 2
  - id: newsletter
    type: boolean
    label: Newsletter
`

// Definition decodes raw JSON or YAML into a checked definition.
func Definition(t *testing.T, raw string) model.FormDefinition {
	t.Helper()

	doc, err := schema.NewDocument(schema.SourceFromFS("fixture"), []byte(raw))
	if err != nil {
		t.Fatalf("fixture document: %v", err)
	}
	def, err := doc.Definition()
	if err != nil {
		t.Fatalf("fixture definition: %v", err)
	}
	return def
}

// LoadDefinition reads a definition file.
func LoadDefinition(t *testing.T, path string) model.FormDefinition {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	doc, err := schema.NewDocument(schema.SourceFromFile(path), data)
	if err != nil {
		t.Fatalf("fixture document: %v", err)
	}
	def, err := doc.Definition()
	if err != nil {
		t.Fatalf("fixture definition: %v", err)
	}
	return def
}

// Form mounts raw and closes the form when the test ends.
func Form(t *testing.T, raw string, options ...form.Option) *form.Form {
	t.Helper()

	f, err := form.New(Definition(t, raw), options...)
	if err != nil {
		t.Fatalf("mount fixture: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}
