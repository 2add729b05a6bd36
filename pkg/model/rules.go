package model

import (
	"fmt"
	"sort"
	"strings"
)

// Reserved rule keys. Every other key inside a rule object names a condition.
const (
	RuleKeyErrorMessage = "errorMessage"
	RuleKeySoft         = "soft"
	RuleKeyWhen         = "when"

	whenKeyIs        = "is"
	whenKeyThen      = "then"
	whenKeyOtherwise = "otherwise"
)

// Condition is a single named test with its argument, e.g. {min: 5}.
type Condition struct {
	Name string
	Arg  any
}

// ConditionSet is an implicitly AND-ed group of conditions. On the wire it is
// an object mapping condition name to argument.
type ConditionSet []Condition

// Names lists the condition names in evaluation order.
func (s ConditionSet) Names() []string {
	names := make([]string, 0, len(s))
	for _, cond := range s {
		names = append(names, cond.Name)
	}
	return names
}

// Map converts the set back into its wire representation.
func (s ConditionSet) Map() map[string]any {
	out := make(map[string]any, len(s))
	for _, cond := range s {
		out[cond.Name] = cond.Arg
	}
	return out
}

// ConditionSetFromMap builds a set with a deterministic order: "required"
// first, then alphabetical.
func ConditionSetFromMap(raw map[string]any) ConditionSet {
	set := make(ConditionSet, 0, len(raw))
	for name, arg := range raw {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		set = append(set, Condition{Name: trimmed, Arg: arg})
	}
	sortConditions(set)
	return set
}

func sortConditions(set ConditionSet) {
	sort.SliceStable(set, func(i, j int) bool {
		if (set[i].Name == "required") != (set[j].Name == "required") {
			return set[i].Name == "required"
		}
		return set[i].Name < set[j].Name
	})
}

// Rule is one entry of a field's validation list. A rule carries zero or more
// conditions, an optional message override, a soft flag (non-blocking), and
// optional when-clauses keyed by dependency field.
//
// Malformed lists syntax problems found while decoding. The offending key,
// clause or entry was dropped; compilers report each one as a warning.
type Rule struct {
	Conditions   ConditionSet
	ErrorMessage string
	Soft         bool
	When         []WhenClause
	Malformed    []string
}

// WhenClause applies Then when the dependency field matches Is, otherwise the
// Otherwise rules (if any).
type WhenClause struct {
	Field     string
	Is        MatchSpec
	Then      []Rule
	Otherwise []Rule
}

// MatchSpec is either a literal (compared by deep equality against the raw
// dependency value) or a list of condition groups evaluated by running the
// dependency's own type schema.
type MatchSpec struct {
	literal any
	groups  []ConditionSet
}

// Literal builds a literal match spec.
func Literal(value any) MatchSpec {
	return MatchSpec{literal: value}
}

// Groups builds a condition-group match spec. Groups are OR-ed; conditions
// inside a group are AND-ed.
func Groups(groups ...ConditionSet) MatchSpec {
	return MatchSpec{groups: groups}
}

// IsGroups reports whether the match holds condition groups.
func (m MatchSpec) IsGroups() bool {
	return len(m.groups) > 0
}

// ConditionGroups returns the condition groups (nil for literal specs).
func (m MatchSpec) ConditionGroups() []ConditionSet {
	return m.groups
}

// Value returns the literal value (nil for group specs).
func (m MatchSpec) Value() any {
	return m.literal
}

// Raw converts the match back to its wire form.
func (m MatchSpec) Raw() any {
	if !m.IsGroups() {
		return m.literal
	}
	out := make([]any, 0, len(m.groups))
	for _, group := range m.groups {
		out = append(out, group.Map())
	}
	return out
}

// MatchSpecFromAny classifies a raw `is` value: a non-empty array whose every
// element is an object is a list of condition groups, anything else a literal.
func MatchSpecFromAny(raw any) MatchSpec {
	items, ok := raw.([]any)
	if !ok || len(items) == 0 {
		return Literal(raw)
	}
	groups := make([]ConditionSet, 0, len(items))
	for _, item := range items {
		group, ok := asMap(item)
		if !ok {
			return Literal(raw)
		}
		groups = append(groups, ConditionSetFromMap(group))
	}
	return Groups(groups...)
}

// RenderRuleGroup maps a dependency field id to the condition sets it must
// satisfy. Every key and every set in one group must hold (AND); a field's
// render rules are a list of groups of which any may hold (OR).
type RenderRuleGroup map[string][]ConditionSet

// Dependencies lists the field ids referenced by the group in sorted order.
func (g RenderRuleGroup) Dependencies() []string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RulesFromAny decodes a generic JSON/YAML tree into a rule list. Entries
// that are not objects become empty rules carrying a Malformed note.
func RulesFromAny(raw any) []Rule {
	if raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		if single, isMap := asMap(raw); isMap {
			items = []any{single}
		} else {
			return []Rule{malformedRule("rules must be a list, got %T", raw)}
		}
	}
	rules := make([]Rule, 0, len(items))
	for idx, item := range items {
		rules = append(rules, RuleFromAny(item, idx))
	}
	return rules
}

// RuleFromAny decodes one entry of a rule list; idx only labels problems.
func RuleFromAny(raw any, idx int) Rule {
	entry, ok := asMap(raw)
	if !ok {
		return malformedRule("rule %d must be an object, got %T", idx, raw)
	}
	return RuleFromMap(entry)
}

func malformedRule(format string, args ...any) Rule {
	return Rule{Malformed: []string{fmt.Sprintf(format, args...)}}
}

// RuleFromMap decodes a single rule object. Reserved keys with the wrong
// shape are dropped and noted in Malformed.
func RuleFromMap(raw map[string]any) Rule {
	var rule Rule
	conditions := make(map[string]any, len(raw))
	for key, value := range raw {
		switch key {
		case RuleKeyErrorMessage:
			msg, ok := value.(string)
			if !ok && value != nil {
				rule.note("errorMessage must be a string, got %T", value)
				continue
			}
			rule.ErrorMessage = msg
		case RuleKeySoft:
			soft, ok := value.(bool)
			if !ok && value != nil {
				rule.note("soft must be a boolean, got %T", value)
				continue
			}
			rule.Soft = soft
		case RuleKeyWhen:
			rule.When = rule.whenFromAny(value)
		default:
			conditions[key] = value
		}
	}
	rule.Conditions = ConditionSetFromMap(conditions)
	sort.Strings(rule.Malformed)
	return rule
}

func (r *Rule) note(format string, args ...any) {
	r.Malformed = append(r.Malformed, fmt.Sprintf(format, args...))
}

func (r *Rule) whenFromAny(raw any) []WhenClause {
	entries, ok := asMap(raw)
	if !ok {
		r.note("when must be an object keyed by field id, got %T", raw)
		return nil
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	clauses := make([]WhenClause, 0, len(ids))
	for _, id := range ids {
		body, ok := asMap(entries[id])
		if !ok {
			r.note("when.%s must be an object, got %T", id, entries[id])
			continue
		}
		clauses = append(clauses, WhenClause{
			Field:     strings.TrimSpace(id),
			Is:        MatchSpecFromAny(body[whenKeyIs]),
			Then:      RulesFromAny(body[whenKeyThen]),
			Otherwise: RulesFromAny(body[whenKeyOtherwise]),
		})
	}
	return clauses
}

// Map converts a rule to its wire representation.
func (r Rule) Map() map[string]any {
	out := r.Conditions.Map()
	if r.ErrorMessage != "" {
		out[RuleKeyErrorMessage] = r.ErrorMessage
	}
	if r.Soft {
		out[RuleKeySoft] = true
	}
	if len(r.When) > 0 {
		when := make(map[string]any, len(r.When))
		for _, clause := range r.When {
			body := map[string]any{whenKeyIs: clause.Is.Raw()}
			if len(clause.Then) > 0 {
				body[whenKeyThen] = rulesToAny(clause.Then)
			}
			if len(clause.Otherwise) > 0 {
				body[whenKeyOtherwise] = rulesToAny(clause.Otherwise)
			}
			when[clause.Field] = body
		}
		out[RuleKeyWhen] = when
	}
	return out
}

func rulesToAny(rules []Rule) []any {
	out := make([]any, 0, len(rules))
	for _, rule := range rules {
		out = append(out, rule.Map())
	}
	return out
}

// RenderRulesFromAny decodes a generic showIf tree.
func RenderRulesFromAny(raw any) ([]RenderRuleGroup, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if single, isMap := asMap(raw); isMap {
			items = []any{single}
		} else {
			return nil, fmt.Errorf("model: render rules must be a list, got %T", raw)
		}
	}
	groups := make([]RenderRuleGroup, 0, len(items))
	for idx, item := range items {
		entry, ok := asMap(item)
		if !ok {
			return nil, fmt.Errorf("model: render group %d must be an object, got %T", idx, item)
		}
		group, err := renderGroupFromMap(entry)
		if err != nil {
			return nil, fmt.Errorf("model: render group %d: %w", idx, err)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func renderGroupFromMap(raw map[string]any) (RenderRuleGroup, error) {
	group := make(RenderRuleGroup, len(raw))
	for field, value := range raw {
		var sets []ConditionSet
		switch typed := value.(type) {
		case []any:
			for idx, item := range typed {
				cond, ok := asMap(item)
				if !ok {
					return nil, fmt.Errorf("%s[%d] must be an object, got %T", field, idx, item)
				}
				sets = append(sets, ConditionSetFromMap(cond))
			}
		default:
			cond, ok := asMap(value)
			if !ok {
				return nil, fmt.Errorf("%s must be a list of conditions, got %T", field, value)
			}
			sets = append(sets, ConditionSetFromMap(cond))
		}
		group[strings.TrimSpace(field)] = sets
	}
	return group, nil
}

func asMap(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case map[string]any:
		return typed, true
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, val := range typed {
			out[fmt.Sprint(key)] = val
		}
		return out, true
	}
	return nil, false
}
