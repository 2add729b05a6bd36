package validator_test

import (
	"errors"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/validator"
)

func always(any, validator.Context) bool { return true }

func TestObjectOrdersFieldsByDependency(t *testing.T) {
	t.Parallel()

	str := validator.New(model.SchemaString)
	obj, err := validator.NewObject(map[string]*validator.Schema{
		"a": str.When("c", always, str.Required(validator.TestOptions{}), nil),
		"b": str,
		"c": str.When("b", always, str.Required(validator.TestOptions{}), nil),
	})
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c", "a"}, obj.Fields()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectRejectsCycleUnlessWhitelisted(t *testing.T) {
	t.Parallel()

	str := validator.New(model.SchemaString)
	shape := map[string]*validator.Schema{
		"a": str.When("b", always, str.Required(validator.TestOptions{}), nil),
		"b": str.When("a", always, str.Required(validator.TestOptions{}), nil),
	}

	_, err := validator.NewObject(shape)
	var cycle *validator.CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, cycle.Fields); diff != "" {
		t.Fatalf("cycle mismatch (-want +got):\n%s", diff)
	}

	obj, err := validator.NewObject(shape,
		validator.DependencyPair{Field: "a", Dependency: "b"},
		validator.DependencyPair{Field: "b", Dependency: "a"},
	)
	if err != nil {
		t.Fatalf("whitelisted cycle should build: %v", err)
	}
	res := obj.Validate(map[string]any{"a": "x"}, "")
	if diff := cmp.Diff([]string{"b"}, keys(res.Errors)); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectValidateStripsUnregisteredKeys(t *testing.T) {
	t.Parallel()

	obj, err := validator.NewObject(map[string]*validator.Schema{
		"age":  validator.New(model.SchemaNumber).Min(18, validator.TestOptions{}),
		"name": validator.New(model.SchemaString).NormalizeEmpty(),
	})
	if err != nil {
		t.Fatalf("NewObject: %v", err)
	}

	res := obj.Validate(map[string]any{"age": "21", "name": "", "hidden": "secret"}, "")
	if !res.Valid() {
		t.Fatalf("expected valid result, got %v", res.Err())
	}
	if diff := cmp.Diff(map[string]any{"age": 21.0}, res.Value); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	res = obj.Validate(map[string]any{"age": 12}, "")
	if res.Valid() || res.Err() == nil {
		t.Fatalf("expected invalid result")
	}
	if diff := cmp.Diff([]string{"age must be at least 18"}, res.Errors["age"].Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func keys[V any](m map[string]V) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
