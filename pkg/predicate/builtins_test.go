package predicate_test

import (
	"testing"

	"github.com/goliatone/go-formrules/pkg/predicate"
)

func TestBuiltinSemanticPredicates(t *testing.T) {
	t.Parallel()

	reg := predicate.NewRegistry()
	parent := map[string]any{"password": "s3cret", "count": 2}

	cases := []struct {
		name  string
		cond  predicate.ConditionName
		value any
		arg   any
		want  bool
	}{
		{"filled string", predicate.Filled, "x", true, true},
		{"filled empty string", predicate.Filled, "", true, false},
		{"filled false arg", predicate.Filled, "", false, true},
		{"empty nil", predicate.Empty, nil, true, true},
		{"empty slice", predicate.Empty, []any{}, true, true},
		{"empty map", predicate.Empty, map[string]any{}, true, true},
		{"empty value", predicate.Empty, "x", true, false},
		{"equals numeric kinds", predicate.Equals, 5, 5.0, true},
		{"equals string", predicate.Equals, "a", "b", false},
		{"equals deep", predicate.Equals, []any{"a", 1}, []any{"a", 1.0}, true},
		{"notEquals", predicate.NotEquals, "a", "b", true},
		{"includes scalar", predicate.Includes, []any{"a", "b"}, "b", true},
		{"includes array any overlap", predicate.Includes, []any{"a", "b"}, []any{"z", "a"}, true},
		{"includes substring", predicate.Includes, "hello world", "world", true},
		{"includes miss", predicate.Includes, []any{"a"}, "b", false},
		{"excludes zero overlap", predicate.Excludes, []any{"a", "b"}, []any{"c", "d"}, true},
		{"excludes partial overlap", predicate.Excludes, []any{"a", "b"}, []any{"b", "d"}, false},
		{"excludes absent", predicate.Excludes, nil, "a", true},
		{"equalsField", predicate.EqualsField, "s3cret", "password", true},
		{"equalsField numeric", predicate.EqualsField, 2.0, "count", true},
		{"equalsField missing sibling", predicate.EqualsField, "x", "nope", false},
		{"notEqualsField", predicate.NotEqualsField, "other", "password", true},
		{"oneOf", predicate.OneOf, "b", []any{"a", "b"}, true},
		{"notOneOf", predicate.NotOneOf, "c", []any{"a", "b"}, true},
		{"before", predicate.Before, "2024-01-01", "2024-06-01", true},
		{"after", predicate.After, "2024-01-01T10:00:00Z", "2024-06-01", false},
		{"before bad date", predicate.Before, "soon", "2024-06-01", false},
		{"checked", predicate.Checked, true, nil, true},
		{"checked string", predicate.Checked, "on", nil, true},
		{"unchecked", predicate.Checked, false, false, true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fn, ok := reg.Resolve(string(tc.cond), "")
			if !ok {
				t.Fatalf("predicate %q not registered", tc.cond)
			}
			got := fn(tc.value, tc.arg, predicate.Context{Parent: parent})
			if got != tc.want {
				t.Fatalf("%s(%v, %v) = %v, want %v", tc.cond, tc.value, tc.arg, got, tc.want)
			}
		})
	}
}
