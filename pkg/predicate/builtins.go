package predicate

import (
	"strings"
	"time"

	"github.com/goliatone/go-formrules/pkg/model"
)

func (r *Registry) registerBuiltins() {
	presence := []RegisterOption{Presence()}

	r.Register(model.SchemaMixed, string(Filled), func(value, arg any, _ Context) bool {
		return IsEmpty(value) != Enabled(arg)
	}, presence...)

	r.Register(model.SchemaMixed, string(Empty), func(value, arg any, _ Context) bool {
		return IsEmpty(value) == Enabled(arg)
	}, presence...)

	r.Register(model.SchemaMixed, string(Checked), func(value, arg any, _ Context) bool {
		return Truthy(value) == Enabled(arg)
	}, presence...)

	r.Register(model.SchemaMixed, string(Equals), func(value, arg any, _ Context) bool {
		return Equal(value, arg)
	})

	r.Register(model.SchemaMixed, string(NotEquals), func(value, arg any, _ Context) bool {
		return !Equal(value, arg)
	})

	r.Register(model.SchemaMixed, string(Includes), func(value, arg any, _ Context) bool {
		return overlaps(value, arg)
	})

	r.Register(model.SchemaMixed, string(Excludes), func(value, arg any, _ Context) bool {
		return !overlaps(value, arg)
	})

	r.Register(model.SchemaMixed, string(EqualsField), func(value, arg any, ctx Context) bool {
		other, ok := siblingValue(ctx, arg)
		return ok && Equal(value, other)
	})

	r.Register(model.SchemaMixed, string(NotEqualsField), func(value, arg any, ctx Context) bool {
		other, ok := siblingValue(ctx, arg)
		return ok && !Equal(value, other)
	})

	r.Register(model.SchemaMixed, string(OneOf), func(value, arg any, _ Context) bool {
		for _, candidate := range AsList(arg) {
			if Equal(value, candidate) {
				return true
			}
		}
		return false
	})

	r.Register(model.SchemaMixed, string(NotOneOf), func(value, arg any, _ Context) bool {
		for _, candidate := range AsList(arg) {
			if Equal(value, candidate) {
				return false
			}
		}
		return true
	})

	r.Register(model.SchemaMixed, string(Before), func(value, arg any, _ Context) bool {
		return compareTimes(value, arg, func(a, b time.Time) bool { return a.Before(b) })
	})

	r.Register(model.SchemaMixed, string(After), func(value, arg any, _ Context) bool {
		return compareTimes(value, arg, func(a, b time.Time) bool { return a.After(b) })
	})
}

// overlaps reports whether value contains any of the targets. Strings are
// matched by substring; collections and scalars by element equality.
func overlaps(value, target any) bool {
	if haystack, ok := value.(string); ok {
		for _, needle := range AsList(target) {
			if s, ok := needle.(string); ok && s != "" && strings.Contains(haystack, s) {
				return true
			}
			if Equal(haystack, needle) {
				return true
			}
		}
		return false
	}
	items := AsList(value)
	for _, needle := range AsList(target) {
		for _, item := range items {
			if Equal(item, needle) {
				return true
			}
		}
	}
	return false
}

func siblingValue(ctx Context, arg any) (any, bool) {
	id, ok := arg.(string)
	if !ok || strings.TrimSpace(id) == "" {
		return nil, false
	}
	return ctx.Sibling(strings.TrimSpace(id))
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseTime accepts time.Time values and RFC 3339 or date-only strings.
func ParseTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, trimmed); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func compareTimes(value, arg any, cmp func(a, b time.Time) bool) bool {
	a, ok := ParseTime(value)
	if !ok {
		return false
	}
	b, ok := ParseTime(arg)
	if !ok {
		return false
	}
	return cmp(a, b)
}
