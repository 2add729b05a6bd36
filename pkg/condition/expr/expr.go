// Package expr compiles the textual render-rule shorthand into structured
// render rule groups.
//
// Supported syntax:
//   - truthiness: `enabled`, `!enabled`
//   - equality: `field == "value"`, `count != 3`, `field == null`
//   - ordering: `age >= 18`, `score < 10`
//   - composition: `a && b`, `a || b`, parentheses and `!( ... )`
//
// The result is always in disjunctive normal form: one RenderRuleGroup per
// AND-clause, OR-ed by the condition evaluator.
package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formrules/pkg/model"
)

// Compile parses rule into render rule groups. An empty rule compiles to no
// groups, which the evaluator treats as always visible.
func Compile(rule string) ([]model.RenderRuleGroup, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	tokens, err := tokenize(trimmed)
	if err != nil {
		return nil, err
	}
	node, err := parseExpression(tokens)
	if err != nil {
		return nil, err
	}
	return toGroups(node.dnf()), nil
}

// MustCompile panics when rule does not parse. Useful for fixtures.
func MustCompile(rule string) []model.RenderRuleGroup {
	groups, err := Compile(rule)
	if err != nil {
		panic(err)
	}
	return groups
}

// Decorator expands FieldDefinition.ShowIfExpr into ShowIf. When both are
// present the two rule sets are AND-ed.
func Decorator() model.Decorator {
	return model.DecoratorFunc(func(form *model.FormDefinition) error {
		if form == nil {
			return nil
		}
		return decorateFields(form.Fields)
	})
}

func decorateFields(fields []model.FieldDefinition) error {
	for idx := range fields {
		field := &fields[idx]
		if strings.TrimSpace(field.ShowIfExpr) != "" {
			groups, err := Compile(field.ShowIfExpr)
			if err != nil {
				return fmt.Errorf("field %q: %w", field.ID, err)
			}
			field.ShowIf = andGroups(field.ShowIf, groups)
			field.ShowIfExpr = ""
		}
		if err := decorateFields(field.Fields); err != nil {
			return err
		}
	}
	return nil
}

// andGroups returns the DNF of (OR a) AND (OR b).
func andGroups(a, b []model.RenderRuleGroup) []model.RenderRuleGroup {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]model.RenderRuleGroup, 0, len(a)*len(b))
	for _, left := range a {
		for _, right := range b {
			merged := make(model.RenderRuleGroup, len(left)+len(right))
			for id, sets := range left {
				merged[id] = append(merged[id], sets...)
			}
			for id, sets := range right {
				merged[id] = append(merged[id], sets...)
			}
			out = append(out, merged)
		}
	}
	return out
}

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenEq
	tokenNeq
	tokenLt
	tokenLte
	tokenGt
	tokenGte
	tokenAnd
	tokenOr
	tokenNot
	tokenLParen
	tokenRParen
)

type token struct {
	kind tokenKind
	raw  string
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '(', ')', '!', '=', '&', '|', '<', '>':
		return true
	}
	return false
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	emit := func(kind tokenKind, raw string) {
		tokens = append(tokens, token{kind: kind, raw: raw})
	}

	for i := 0; i < len(input); {
		ch := input[i]
		peek := byte(0)
		if i+1 < len(input) {
			peek = input[i+1]
		}
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == '(':
			emit(tokenLParen, "(")
			i++
		case ch == ')':
			emit(tokenRParen, ")")
			i++
		case ch == '!' && peek == '=':
			emit(tokenNeq, "!=")
			i += 2
		case ch == '!':
			emit(tokenNot, "!")
			i++
		case ch == '=' && peek == '=':
			emit(tokenEq, "==")
			i += 2
		case ch == '=':
			return nil, errors.New("expr: unexpected '='; use '=='")
		case ch == '&' && peek == '&':
			emit(tokenAnd, "&&")
			i += 2
		case ch == '|' && peek == '|':
			emit(tokenOr, "||")
			i += 2
		case ch == '&' || ch == '|':
			return nil, fmt.Errorf("expr: unexpected %q; use %q", string(ch), strings.Repeat(string(ch), 2))
		case ch == '<' && peek == '=':
			emit(tokenLte, "<=")
			i += 2
		case ch == '<':
			emit(tokenLt, "<")
			i++
		case ch == '>' && peek == '=':
			emit(tokenGte, ">=")
			i += 2
		case ch == '>':
			emit(tokenGt, ">")
			i++
		case ch == '"' || ch == '\'':
			end := i + 1
			for end < len(input) && input[end] != ch {
				if input[end] == '\\' {
					end++
				}
				end++
			}
			if end >= len(input) {
				return nil, errors.New("expr: unterminated string literal")
			}
			body := input[i+1 : end]
			if ch == '\'' {
				body = strings.ReplaceAll(body, `\'`, `'`)
				body = strings.ReplaceAll(body, `"`, `\"`)
			}
			value, err := strconv.Unquote(`"` + body + `"`)
			if err != nil {
				return nil, fmt.Errorf("expr: invalid string literal: %w", err)
			}
			emit(tokenString, value)
			i = end + 1
		default:
			start := i
			for i < len(input) && !isDelimiter(input[i]) {
				i++
			}
			raw := input[start:i]
			switch lower := strings.ToLower(raw); {
			case lower == "true" || lower == "false":
				emit(tokenBool, lower)
			case lower == "null" || lower == "nil":
				emit(tokenNull, "null")
			case looksLikeNumber(raw):
				emit(tokenNumber, raw)
			default:
				emit(tokenIdentifier, raw)
			}
		}
	}
	return tokens, nil
}

func looksLikeNumber(raw string) bool {
	if raw == "" {
		return false
	}
	ch := raw[0]
	return (ch >= '0' && ch <= '9') || ch == '-' || ch == '+'
}
