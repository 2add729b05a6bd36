package model_test

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formrules/pkg/model"
)

const nestedRulesJSON = `[
  {"required": true, "errorMessage": "name please"},
  {"min": 3, "soft": true},
  {"when": {
    "country": {
      "is": "US",
      "then": [{"length": 5, "when": {"zipKind": {"is": [{"filled": true}], "then": [{"matches": "/^[0-9]+$/"}]}}}],
      "otherwise": [{"max": 10}]
    }
  }}
]`

func TestRulesDecodeJSON(t *testing.T) {
	t.Parallel()

	var rules []model.Rule
	if err := json.Unmarshal([]byte(nestedRulesJSON), &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}

	if diff := cmp.Diff([]string{"required"}, rules[0].Conditions.Names()); diff != "" {
		t.Fatalf("rule 0 conditions mismatch (-want +got):\n%s", diff)
	}
	if rules[0].ErrorMessage != "name please" {
		t.Fatalf("expected errorMessage, got %q", rules[0].ErrorMessage)
	}
	if !rules[1].Soft {
		t.Fatalf("expected rule 1 to be soft")
	}

	when := rules[2].When
	if len(when) != 1 || when[0].Field != "country" {
		t.Fatalf("unexpected when clauses: %+v", when)
	}
	if when[0].Is.IsGroups() {
		t.Fatalf("expected literal match spec")
	}
	if when[0].Is.Value() != "US" {
		t.Fatalf("expected literal US, got %v", when[0].Is.Value())
	}
	if len(when[0].Otherwise) != 1 {
		t.Fatalf("expected otherwise branch")
	}

	nested := when[0].Then[0].When
	if len(nested) != 1 || nested[0].Field != "zipKind" {
		t.Fatalf("expected nested when on zipKind, got %+v", nested)
	}
	if !nested[0].Is.IsGroups() {
		t.Fatalf("expected condition-group match spec")
	}
	if diff := cmp.Diff([]string{"filled"}, nested[0].Is.ConditionGroups()[0].Names()); diff != "" {
		t.Fatalf("group mismatch (-want +got):\n%s", diff)
	}
}

func TestRulesDecodeYAML(t *testing.T) {
	t.Parallel()

	doc := `
- required: true
- when:
    other:
      is: [1, 2]
      then:
        - min: 2
`
	var rules []model.Rule
	if err := yaml.Unmarshal([]byte(doc), &rules); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}
	clause := rules[1].When[0]
	if clause.Is.IsGroups() {
		t.Fatalf("array of scalars must stay a literal")
	}
	if diff := cmp.Diff([]any{1, 2}, clause.Is.Value()); diff != "" {
		t.Fatalf("literal mismatch (-want +got):\n%s", diff)
	}
	if got := clause.Then[0].Conditions[0]; got.Name != "min" {
		t.Fatalf("expected min condition, got %+v", got)
	}
}

func TestRuleRoundTripKeepsConditionOrder(t *testing.T) {
	t.Parallel()

	rule := model.RuleFromMap(map[string]any{"max": 4, "required": true, "min": 1})
	if diff := cmp.Diff([]string{"required", "max", "min"}, rule.Conditions.Names()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestMalformedRuleSyntaxIsNotedAndSkipped(t *testing.T) {
	t.Parallel()

	rule := model.RuleFromMap(map[string]any{
		"soft":         "yes",
		"errorMessage": 5,
		"when":         "oops",
		"min":          1,
	})
	want := []string{
		"errorMessage must be a string, got int",
		"soft must be a boolean, got string",
		"when must be an object keyed by field id, got string",
	}
	if diff := cmp.Diff(want, rule.Malformed); diff != "" {
		t.Fatalf("malformed notes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"min"}, rule.Conditions.Names()); diff != "" {
		t.Fatalf("conditions mismatch (-want +got):\n%s", diff)
	}
	if rule.Soft || rule.ErrorMessage != "" || len(rule.When) != 0 {
		t.Fatalf("bad reserved keys must be dropped, got %+v", rule)
	}

	partial := model.RuleFromMap(map[string]any{"when": map[string]any{
		"a": "oops",
		"b": map[string]any{"is": 1, "then": []any{map[string]any{"required": true}}},
	}})
	if len(partial.When) != 1 || partial.When[0].Field != "b" {
		t.Fatalf("expected only the well-formed clause, got %+v", partial.When)
	}
	if diff := cmp.Diff([]string{"when.a must be an object, got string"}, partial.Malformed); diff != "" {
		t.Fatalf("clause notes mismatch (-want +got):\n%s", diff)
	}
}

func TestMalformedRulesStillDecodeDefinition(t *testing.T) {
	t.Parallel()

	doc := `{"fields": [{"id": "a", "validation": [{"when": "oops", "min": 1}, "stray", {"required": true}]}]}`
	var form model.FormDefinition
	if err := json.Unmarshal([]byte(doc), &form); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rules := form.Fields[0].Validation
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	if diff := cmp.Diff([]string{"min"}, rules[0].Conditions.Names()); diff != "" {
		t.Fatalf("rule 0 conditions mismatch (-want +got):\n%s", diff)
	}
	if len(rules[0].Malformed) != 1 || len(rules[1].Malformed) != 1 || len(rules[2].Malformed) != 0 {
		t.Fatalf("unexpected malformed notes: %q %q %q", rules[0].Malformed, rules[1].Malformed, rules[2].Malformed)
	}

	var fromYAML model.FormDefinition
	if err := yaml.Unmarshal([]byte("fields:\n  - id: a\n    validation:\n      - errorMessage: 5\n        min: 1\n"), &fromYAML); err != nil {
		t.Fatalf("yaml unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"errorMessage must be a string, got int"}, fromYAML.Fields[0].Validation[0].Malformed); diff != "" {
		t.Fatalf("yaml notes mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderRulesDecode(t *testing.T) {
	t.Parallel()

	doc := `{"fields": [{"id": "b", "showIf": [{"a": [{"min": 5}], "c": [{"filled": true}]}, {"d": [{"equals": "x"}]}]}]}`
	var form model.FormDefinition
	if err := json.Unmarshal([]byte(doc), &form); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	groups := form.Fields[0].ShowIf
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if diff := cmp.Diff([]string{"a", "c"}, groups[0].Dependencies()); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestFormDefinitionCheck(t *testing.T) {
	t.Parallel()

	form := model.FormDefinition{Fields: []model.FieldDefinition{
		{ID: "a"},
		{ID: "group", Fields: []model.FieldDefinition{{ID: "a"}}},
	}}
	if err := form.Check(); err == nil {
		t.Fatalf("expected duplicate id error")
	}

	form = model.FormDefinition{RestoreMode: "sometimes", Fields: []model.FieldDefinition{{ID: "a"}}}
	if err := form.Check(); err == nil {
		t.Fatalf("expected restore mode error")
	}
}

func TestParseSchemaType(t *testing.T) {
	t.Parallel()

	cases := map[string]model.SchemaType{
		"string":  model.SchemaString,
		"integer": model.SchemaNumber,
		"BOOL":    model.SchemaBoolean,
		"":        model.SchemaMixed,
		"weird":   model.SchemaMixed,
	}
	for raw, want := range cases {
		if got := model.ParseSchemaType(raw); got != want {
			t.Fatalf("ParseSchemaType(%q) = %q, want %q", raw, got, want)
		}
	}
}
