package compiler

import (
	"github.com/goliatone/go-formrules/pkg/predicate"
	"github.com/goliatone/go-formrules/pkg/validator"
)

// nativeMethod applies a structural condition to a schema. Arguments have
// already been checked with predicate.ValidateArg.
type nativeMethod func(s *validator.Schema, arg any, opts validator.TestOptions) *validator.Schema

var nativeMethods = map[predicate.ConditionName]nativeMethod{
	predicate.Required: toggle((*validator.Schema).Required),
	predicate.Length: func(s *validator.Schema, arg any, opts validator.TestOptions) *validator.Schema {
		n, _ := predicate.Number(arg)
		return s.Length(int(n), opts)
	},
	predicate.Min:      bound((*validator.Schema).Min),
	predicate.Max:      bound((*validator.Schema).Max),
	predicate.LessThan: bound((*validator.Schema).LessThan),
	predicate.MoreThan: bound((*validator.Schema).MoreThan),
	predicate.Matches: func(s *validator.Schema, arg any, opts validator.TestOptions) *validator.Schema {
		re, _ := predicate.ParseRegex(arg)
		return s.Matches(re, opts)
	},
	predicate.Email:    toggle((*validator.Schema).Email),
	predicate.URL:      toggle((*validator.Schema).URL),
	predicate.UUID:     toggle((*validator.Schema).UUID),
	predicate.Positive: toggle((*validator.Schema).Positive),
	predicate.Negative: toggle((*validator.Schema).Negative),
	predicate.Integer:  toggle((*validator.Schema).Integer),
}

// toggle adapts argument-less methods; a false argument disables the rule.
func toggle(method func(*validator.Schema, validator.TestOptions) *validator.Schema) nativeMethod {
	return func(s *validator.Schema, arg any, opts validator.TestOptions) *validator.Schema {
		if !predicate.Enabled(arg) {
			return s
		}
		return method(s, opts)
	}
}

func bound(method func(*validator.Schema, float64, validator.TestOptions) *validator.Schema) nativeMethod {
	return func(s *validator.Schema, arg any, opts validator.TestOptions) *validator.Schema {
		limit, _ := predicate.Number(arg)
		return method(s, limit, opts)
	}
}
