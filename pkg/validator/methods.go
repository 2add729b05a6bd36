package validator

import (
	"regexp"

	"github.com/goliatone/go-formrules/pkg/predicate"
)

// TestOptions customise a structural test.
type TestOptions struct {
	Message string
	Soft    bool
}

func (s *Schema) structural(name predicate.ConditionName, arg any, presence bool, opts TestOptions) *Schema {
	check, _ := predicate.Structural(name)
	var params map[string]any
	if arg != nil {
		params = map[string]any{"arg": arg}
	}
	return s.Test(Test{
		Name:     string(name),
		Message:  opts.Message,
		Params:   params,
		Soft:     opts.Soft,
		Presence: presence,
		Fn: func(value any, ctx Context) bool {
			return check(value, arg, ctx)
		},
	})
}

// Required fails on absent and empty values.
func (s *Schema) Required(opts TestOptions) *Schema {
	return s.structural(predicate.Required, nil, true, opts)
}

// Length requires an exact string or collection length.
func (s *Schema) Length(n int, opts TestOptions) *Schema {
	return s.structural(predicate.Length, n, false, opts)
}

// Min applies a lower bound: numbers compare by value, strings and
// collections by length.
func (s *Schema) Min(limit float64, opts TestOptions) *Schema {
	return s.structural(predicate.Min, limit, false, opts)
}

// Max applies an upper bound with the same measuring rules as Min.
func (s *Schema) Max(limit float64, opts TestOptions) *Schema {
	return s.structural(predicate.Max, limit, false, opts)
}

// Matches requires a string matching re.
func (s *Schema) Matches(re *regexp.Regexp, opts TestOptions) *Schema {
	if re == nil {
		return s.Clone()
	}
	out := s.structural(predicate.Matches, re, false, opts)
	out.tests[len(out.tests)-1].Params = map[string]any{"arg": re.String()}
	return out
}

// Email requires a valid email address.
func (s *Schema) Email(opts TestOptions) *Schema {
	return s.structural(predicate.Email, nil, false, opts)
}

// URL requires an absolute URL.
func (s *Schema) URL(opts TestOptions) *Schema {
	return s.structural(predicate.URL, nil, false, opts)
}

// UUID requires a canonical UUID string.
func (s *Schema) UUID(opts TestOptions) *Schema {
	return s.structural(predicate.UUID, nil, false, opts)
}

// Positive requires a number greater than zero.
func (s *Schema) Positive(opts TestOptions) *Schema {
	return s.structural(predicate.Positive, nil, false, opts)
}

// Negative requires a number lower than zero.
func (s *Schema) Negative(opts TestOptions) *Schema {
	return s.structural(predicate.Negative, nil, false, opts)
}

// Integer requires a whole number.
func (s *Schema) Integer(opts TestOptions) *Schema {
	return s.structural(predicate.Integer, nil, false, opts)
}

// LessThan requires a number strictly below limit.
func (s *Schema) LessThan(limit float64, opts TestOptions) *Schema {
	return s.structural(predicate.LessThan, limit, false, opts)
}

// MoreThan requires a number strictly above limit.
func (s *Schema) MoreThan(limit float64, opts TestOptions) *Schema {
	return s.structural(predicate.MoreThan, limit, false, opts)
}
