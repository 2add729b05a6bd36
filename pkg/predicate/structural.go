package predicate

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	formatValidator = validator.New()
	regexCache      sync.Map
)

// structuralChecks is the dispatch table for structural conditions. Checks
// are strict: absent values never satisfy a bound.
var structuralChecks = map[ConditionName]Predicate{
	Required: checkRequired,
	Length:   checkLength,
	Min:      checkMin,
	Max:      checkMax,
	Matches:  checkMatches,
	Email:    formatCheck("email"),
	URL:      formatCheck("url"),
	UUID:     formatCheck("uuid"),
	Positive: signCheck(func(n float64) bool { return n > 0 }),
	Negative: signCheck(func(n float64) bool { return n < 0 }),
	Integer:  signCheck(func(n float64) bool { return n == math.Trunc(n) && !math.IsInf(n, 0) }),
	LessThan: boundCheck(func(n, limit float64) bool { return n < limit }),
	MoreThan: boundCheck(func(n, limit float64) bool { return n > limit }),
}

// Structural returns the check backing a structural condition.
func Structural(name ConditionName) (Predicate, bool) {
	fn, ok := structuralChecks[name]
	return fn, ok
}

// ValidateArg reports whether arg is usable for the structural condition.
// The compiler calls it so malformed arguments become warnings instead of
// silently failing every value.
func ValidateArg(name ConditionName, arg any) error {
	switch name {
	case Length, Min, Max, LessThan, MoreThan:
		if _, ok := Number(arg); !ok {
			return fmt.Errorf("predicate: %s expects a numeric argument, got %T", name, arg)
		}
	case Matches:
		if _, err := ParseRegex(arg); err != nil {
			return err
		}
	case Required, Email, URL, UUID, Positive, Negative, Integer:
		return nil
	default:
		return fmt.Errorf("predicate: %q is not a structural condition", name)
	}
	return nil
}

// Enabled reports whether a boolean-style argument switches the condition on.
// A missing argument (nil) counts as enabled.
func Enabled(arg any) bool {
	if arg == nil {
		return true
	}
	if b, ok := arg.(bool); ok {
		return b
	}
	return Truthy(arg)
}

func checkRequired(value, arg any, _ Context) bool {
	if !Enabled(arg) {
		return true
	}
	return !IsEmpty(value)
}

func checkLength(value, arg any, _ Context) bool {
	want, ok := Number(arg)
	if !ok {
		return false
	}
	got, ok := Size(value)
	return ok && float64(got) == want
}

func checkMin(value, arg any, _ Context) bool {
	return measure(value, arg, func(got, limit float64) bool { return got >= limit })
}

func checkMax(value, arg any, _ Context) bool {
	return measure(value, arg, func(got, limit float64) bool { return got <= limit })
}

// measure compares numbers by value and strings/collections by length.
func measure(value, arg any, cmp func(got, limit float64) bool) bool {
	limit, ok := Number(arg)
	if !ok {
		return false
	}
	if n, ok := ToFloat(value); ok {
		return cmp(n, limit)
	}
	size, ok := Size(value)
	if !ok {
		return false
	}
	return cmp(float64(size), limit)
}

func checkMatches(value, arg any, _ Context) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	re, err := ParseRegex(arg)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func formatCheck(tag string) Predicate {
	return func(value, arg any, _ Context) bool {
		if !Enabled(arg) {
			return true
		}
		s, ok := value.(string)
		if !ok {
			return false
		}
		return formatValidator.Var(s, tag) == nil
	}
}

func signCheck(test func(float64) bool) Predicate {
	return func(value, arg any, _ Context) bool {
		if !Enabled(arg) {
			return true
		}
		n, ok := Number(value)
		return ok && test(n)
	}
}

func boundCheck(test func(n, limit float64) bool) Predicate {
	return func(value, arg any, _ Context) bool {
		limit, ok := Number(arg)
		if !ok {
			return false
		}
		n, ok := Number(value)
		return ok && test(n, limit)
	}
}

// ParseRegex accepts either a bare pattern or the `/pattern/flags` literal
// form. Supported flags are i, m and s; g, u and y are accepted and ignored.
func ParseRegex(arg any) (*regexp.Regexp, error) {
	if re, ok := arg.(*regexp.Regexp); ok {
		return re, nil
	}
	raw, ok := arg.(string)
	if !ok {
		return nil, fmt.Errorf("predicate: matches expects a string pattern, got %T", arg)
	}
	if cached, ok := regexCache.Load(raw); ok {
		return cached.(*regexp.Regexp), nil
	}
	pattern, flags := raw, ""
	if strings.HasPrefix(raw, "/") {
		end := strings.LastIndex(raw, "/")
		if end <= 0 {
			return nil, fmt.Errorf("predicate: malformed regex literal %q", raw)
		}
		pattern, flags = raw[1:end], raw[end+1:]
	}
	prefix := ""
	for _, flag := range flags {
		switch flag {
		case 'i', 'm', 's':
			if !strings.ContainsRune(prefix, flag) {
				prefix += string(flag)
			}
		case 'g', 'u', 'y':
		default:
			return nil, fmt.Errorf("predicate: unsupported regex flag %q in %q", flag, raw)
		}
	}
	if prefix != "" {
		pattern = "(?" + prefix + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("predicate: invalid regex %q: %w", raw, err)
	}
	regexCache.Store(raw, re)
	return re, nil
}
