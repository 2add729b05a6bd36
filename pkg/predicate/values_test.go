package predicate_test

import (
	"testing"

	"github.com/goliatone/go-formrules/pkg/predicate"
)

func TestSize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value any
		want  int
		ok    bool
	}{
		{"runes", "héllo", 5, true},
		{"list", []any{1, 2, 3}, 3, true},
		{"object", map[string]any{"a": 1}, 1, true},
		{"nil", nil, 0, false},
		{"number", 42, 0, false},
	}
	for _, tc := range cases {
		got, ok := predicate.Size(tc.value)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("%s: Size = (%d, %v), want (%d, %v)", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEqualAcrossMapKeyTypes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a    any
		b    any
		want bool
	}{
		{"string and any keys", map[string]any{"plan": "team", "seats": 2}, map[any]any{"plan": "team", "seats": 2.0}, true},
		{"value differs", map[string]any{"plan": "team"}, map[any]any{"plan": "solo"}, false},
		{"key missing", map[string]any{"plan": "team"}, map[any]any{"tier": "team"}, false},
		{"nested", []any{map[any]any{"a": []any{1}}}, []any{map[string]any{"a": []any{1.0}}}, true},
	}
	for _, tc := range cases {
		if got := predicate.Equal(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: Equal = %v, want %v", tc.name, got, tc.want)
		}
		if got := predicate.Equal(tc.b, tc.a); got != tc.want {
			t.Fatalf("%s (swapped): Equal = %v, want %v", tc.name, got, tc.want)
		}
	}
}
