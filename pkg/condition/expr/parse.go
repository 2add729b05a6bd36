package expr

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/predicate"
)

// atom is a single field condition.
type atom struct {
	field string
	cond  model.Condition
}

// conjunction is an AND of atoms.
type conjunction []atom

type exprNode interface {
	dnf() []conjunction
	negate() exprNode
}

type exprOr struct{ left, right exprNode }

func (n exprOr) dnf() []conjunction {
	return append(n.left.dnf(), n.right.dnf()...)
}

func (n exprOr) negate() exprNode {
	return exprAnd{left: n.left.negate(), right: n.right.negate()}
}

type exprAnd struct{ left, right exprNode }

func (n exprAnd) dnf() []conjunction {
	left, right := n.left.dnf(), n.right.dnf()
	out := make([]conjunction, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			merged := make(conjunction, 0, len(l)+len(r))
			merged = append(merged, l...)
			merged = append(merged, r...)
			out = append(out, merged)
		}
	}
	return out
}

func (n exprAnd) negate() exprNode {
	return exprOr{left: n.left.negate(), right: n.right.negate()}
}

type exprAtom struct{ atom atom }

func (n exprAtom) dnf() []conjunction {
	return []conjunction{{n.atom}}
}

func (n exprAtom) negate() exprNode {
	a := n.atom
	switch predicate.ConditionName(a.cond.Name) {
	case predicate.Equals:
		a.cond.Name = string(predicate.NotEquals)
	case predicate.NotEquals:
		a.cond.Name = string(predicate.Equals)
	case predicate.Filled:
		a.cond.Name = string(predicate.Empty)
	case predicate.Empty:
		a.cond.Name = string(predicate.Filled)
	case predicate.Checked:
		a.cond.Arg = !predicate.Enabled(a.cond.Arg)
	case predicate.LessThan:
		a.cond.Name = string(predicate.Min)
	case predicate.Min:
		a.cond.Name = string(predicate.LessThan)
	case predicate.MoreThan:
		a.cond.Name = string(predicate.Max)
	case predicate.Max:
		a.cond.Name = string(predicate.MoreThan)
	}
	return exprAtom{atom: a}
}

func toGroups(conjunctions []conjunction) []model.RenderRuleGroup {
	groups := make([]model.RenderRuleGroup, 0, len(conjunctions))
	for _, conj := range conjunctions {
		group := make(model.RenderRuleGroup, len(conj))
		for _, a := range conj {
			group[a.field] = append(group[a.field], model.ConditionSet{a.cond})
		}
		groups = append(groups, group)
	}
	return groups
}

type tokenStream struct {
	tokens []token
	pos    int
}

func parseExpression(tokens []token) (exprNode, error) {
	if len(tokens) == 0 {
		return nil, errors.New("expr: empty expression")
	}
	stream := &tokenStream{tokens: tokens}
	node, err := parseOr(stream)
	if err != nil {
		return nil, err
	}
	if stream.pos < len(stream.tokens) {
		return nil, fmt.Errorf("expr: unexpected token %q", stream.tokens[stream.pos].raw)
	}
	return node, nil
}

func parseOr(stream *tokenStream) (exprNode, error) {
	left, err := parseAnd(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenOr) {
		right, err := parseAnd(stream)
		if err != nil {
			return nil, err
		}
		left = exprOr{left: left, right: right}
	}
	return left, nil
}

func parseAnd(stream *tokenStream) (exprNode, error) {
	left, err := parseUnary(stream)
	if err != nil {
		return nil, err
	}
	for stream.match(tokenAnd) {
		right, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		left = exprAnd{left: left, right: right}
	}
	return left, nil
}

func parseUnary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenNot) {
		inner, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return inner.negate(), nil
	}
	return parsePrimary(stream)
}

var comparisonConditions = map[tokenKind]predicate.ConditionName{
	tokenEq:  predicate.Equals,
	tokenNeq: predicate.NotEquals,
	tokenLt:  predicate.LessThan,
	tokenLte: predicate.Max,
	tokenGt:  predicate.MoreThan,
	tokenGte: predicate.Min,
}

func parsePrimary(stream *tokenStream) (exprNode, error) {
	if stream.match(tokenLParen) {
		inner, err := parseOr(stream)
		if err != nil {
			return nil, err
		}
		if !stream.match(tokenRParen) {
			return nil, errors.New("expr: missing closing ')'")
		}
		return inner, nil
	}

	ident, ok := stream.consume(tokenIdentifier)
	if !ok {
		if stream.pos >= len(stream.tokens) {
			return nil, errors.New("expr: unexpected end of expression")
		}
		return nil, fmt.Errorf("expr: expected identifier, got %q", stream.tokens[stream.pos].raw)
	}

	for kind, name := range comparisonConditions {
		if !stream.match(kind) {
			continue
		}
		lit, err := stream.consumeLiteral()
		if err != nil {
			return nil, err
		}
		return comparison(ident.raw, kind, name, lit)
	}

	return exprAtom{atom: atom{
		field: ident.raw,
		cond:  model.Condition{Name: string(predicate.Checked), Arg: true},
	}}, nil
}

func comparison(field string, kind tokenKind, name predicate.ConditionName, lit literal) (exprNode, error) {
	if lit.null {
		switch kind {
		case tokenEq:
			return exprAtom{atom: atom{field: field, cond: model.Condition{Name: string(predicate.Empty), Arg: true}}}, nil
		case tokenNeq:
			return exprAtom{atom: atom{field: field, cond: model.Condition{Name: string(predicate.Filled), Arg: true}}}, nil
		}
		return nil, fmt.Errorf("expr: null only supports == and != (field %q)", field)
	}
	if kind != tokenEq && kind != tokenNeq {
		if _, ok := lit.value.(float64); !ok {
			return nil, fmt.Errorf("expr: ordering on %q requires a number", field)
		}
	}
	return exprAtom{atom: atom{field: field, cond: model.Condition{Name: string(name), Arg: lit.value}}}, nil
}

type literal struct {
	value any
	null  bool
}

func (s *tokenStream) match(kind tokenKind) bool {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) consume(kind tokenKind) (token, bool) {
	if s.pos >= len(s.tokens) || s.tokens[s.pos].kind != kind {
		return token{}, false
	}
	out := s.tokens[s.pos]
	s.pos++
	return out, true
}

func (s *tokenStream) consumeLiteral() (literal, error) {
	if s.pos >= len(s.tokens) {
		return literal{}, errors.New("expr: missing literal")
	}
	tok := s.tokens[s.pos]
	s.pos++
	switch tok.kind {
	case tokenString:
		return literal{value: tok.raw}, nil
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return literal{}, fmt.Errorf("expr: invalid number literal %q", tok.raw)
		}
		return literal{value: value}, nil
	case tokenBool:
		return literal{value: tok.raw == "true"}, nil
	case tokenNull:
		return literal{null: true}, nil
	case tokenIdentifier:
		// Bare identifiers are treated as strings to keep the syntax forgiving.
		return literal{value: tok.raw}, nil
	default:
		return literal{}, fmt.Errorf("expr: expected literal, got %q", tok.raw)
	}
}
