package compiler_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrules/pkg/compiler"
	"github.com/goliatone/go-formrules/pkg/model"
)

func TestValidationRegistryTracksMembership(t *testing.T) {
	t.Parallel()

	reg := compiler.NewValidationRegistry()
	reg.Set("b", compiler.NewFieldConfig(model.SchemaString, nil))
	reg.Set("a", compiler.NewFieldConfig("bogus", nil))
	reg.Set("", compiler.NewFieldConfig(model.SchemaString, nil))

	if diff := cmp.Diff([]string{"a", "b"}, reg.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	cfg, ok := reg.Get("a")
	if !ok || cfg.Type != model.SchemaMixed {
		t.Fatalf("expected invalid type to fall back to mixed, got %+v", cfg)
	}

	before := reg.Version()
	if !reg.Delete("a") {
		t.Fatalf("expected delete to report removal")
	}
	if reg.Delete("a") {
		t.Fatalf("second delete must be a no-op")
	}
	if reg.Version() != before+1 {
		t.Fatalf("version = %d, want %d", reg.Version(), before+1)
	}
	if reg.Has("a") || reg.Len() != 1 {
		t.Fatalf("unexpected registry state: %v", reg.IDs())
	}
}

func TestRegistryForIncludesHiddenFields(t *testing.T) {
	t.Parallel()

	def := model.FormDefinition{Fields: []model.FieldDefinition{
		{ID: "kind", Type: model.SchemaString},
		{ID: "company", Fields: []model.FieldDefinition{
			{ID: "company.name", Type: model.SchemaString, ShowIf: []model.RenderRuleGroup{
				{"kind": {model.ConditionSet{{Name: "equals", Arg: "company"}}}},
			}},
		}},
	}}
	reg := compiler.RegistryFor(def)
	if diff := cmp.Diff([]string{"company.name", "kind"}, reg.IDs()); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}
