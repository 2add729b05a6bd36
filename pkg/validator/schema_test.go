package validator_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/validator"
)

func rules(issues validator.Issues) []string {
	var out []string
	for _, issue := range issues {
		out = append(out, issue.Rule)
	}
	return out
}

func TestSchemaSkipsOptionalTestsOnAbsentValues(t *testing.T) {
	t.Parallel()

	schema := validator.New(model.SchemaString).
		Min(5, validator.TestOptions{}).
		NormalizeEmpty()

	for _, value := range []any{nil, ""} {
		if _, issues := schema.Validate(value, validator.Context{Field: "name"}); len(issues) != 0 {
			t.Fatalf("value %#v: expected no issues, got %v", value, issues)
		}
	}

	_, issues := schema.Validate("hi", validator.Context{Field: "name"})
	if diff := cmp.Diff([]string{"min"}, rules(issues)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if got, want := issues[0].Message, "name must be at least 5"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestSchemaRequiredRunsOnAbsentValues(t *testing.T) {
	t.Parallel()

	schema := validator.New(model.SchemaString).
		Required(validator.TestOptions{Message: "{path} please"}).
		NormalizeEmpty()

	_, issues := schema.Validate("", validator.Context{Field: "email"})
	if diff := cmp.Diff([]string{"email please"}, issues.Messages()); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestStrictCloneTestsAbsentValues(t *testing.T) {
	t.Parallel()

	base := validator.New(model.SchemaString).Min(5, validator.TestOptions{})
	strict := base.Strict()

	if !base.IsValid(nil, validator.Context{}) {
		t.Fatalf("expected optional schema to accept absent value")
	}
	if strict.IsValid(nil, validator.Context{}) {
		t.Fatalf("expected strict clone to reject absent value")
	}
	if base.IsStrict() {
		t.Fatalf("strict clone mutated the original")
	}
}

func TestSchemaIsImmutable(t *testing.T) {
	t.Parallel()

	base := validator.New(model.SchemaNumber)
	extended := base.Positive(validator.TestOptions{})

	if len(base.Tests()) != 0 {
		t.Fatalf("builder mutated the receiver: %v", base.Tests())
	}
	if diff := cmp.Diff([]string{"positive"}, extended.Tests()); diff != "" {
		t.Fatalf("tests mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaCoercion(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		typ   model.SchemaType
		input any
		want  any
	}{
		{name: "numeric string", typ: model.SchemaNumber, input: "42", want: 42.0},
		{name: "int", typ: model.SchemaNumber, input: 7, want: 7.0},
		{name: "non numeric string", typ: model.SchemaNumber, input: "abc", want: "abc"},
		{name: "boolean string", typ: model.SchemaBoolean, input: "true", want: true},
		{name: "number to string", typ: model.SchemaString, input: 3.5, want: "3.5"},
		{name: "mixed untouched", typ: model.SchemaMixed, input: "1", want: "1"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := validator.New(tc.typ).Cast(tc.input)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("cast mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSchemaTypeError(t *testing.T) {
	t.Parallel()

	schema := validator.New(model.SchemaNumber).Min(1, validator.TestOptions{})
	_, issues := schema.Validate("abc", validator.Context{Field: "age"})
	if diff := cmp.Diff([]string{"typeError"}, rules(issues)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if got, want := issues[0].Message, "age must be a `number` type"; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestSoftIssuesDoNotBlock(t *testing.T) {
	t.Parallel()

	schema := validator.New(model.SchemaString).
		Matches(regexp.MustCompile(`^[A-Z]`), validator.TestOptions{Soft: true, Message: "Should start upper case"})

	_, issues := schema.Validate("lower", validator.Context{Field: "title"})
	if len(issues) != 1 || !issues[0].Soft {
		t.Fatalf("expected a single soft issue, got %#v", issues)
	}
	if !schema.IsValid("lower", validator.Context{Field: "title"}) {
		t.Fatalf("soft issue must not invalidate the value")
	}
}

func TestWhenSelectsBranchFromSibling(t *testing.T) {
	t.Parallel()

	then := validator.New(model.SchemaString).Required(validator.TestOptions{})
	otherwise := validator.New(model.SchemaString).Max(3, validator.TestOptions{})
	schema := validator.New(model.SchemaString).
		When("kind", func(dep any, _ validator.Context) bool { return dep == "company" }, then, otherwise).
		NormalizeEmpty()

	ctx := func(kind string) validator.Context {
		return validator.Context{Field: "vat", Parent: map[string]any{"kind": kind}}
	}

	if _, issues := schema.Validate("", ctx("company")); len(issues) != 1 || issues[0].Rule != "required" {
		t.Fatalf("expected required from then-branch, got %v", issues)
	}
	if _, issues := schema.Validate("toolong", ctx("person")); len(issues) != 1 || issues[0].Rule != "max" {
		t.Fatalf("expected max from otherwise-branch, got %v", issues)
	}
	if _, issues := schema.Validate("", ctx("person")); len(issues) != 0 {
		t.Fatalf("expected optional otherwise-branch to accept empty value, got %v", issues)
	}
	if diff := cmp.Diff([]string{"kind"}, schema.Dependencies()); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestAsIssues(t *testing.T) {
	t.Parallel()

	var err error = validator.Issues{{Path: "a", Rule: "required"}}
	iss, ok := validator.AsIssues(err)
	if !ok || len(iss) != 1 {
		t.Fatalf("expected issues, got %v %v", iss, ok)
	}
	if _, ok := validator.AsIssues(errors.New("plain")); ok {
		t.Fatalf("plain error must not convert")
	}
}
