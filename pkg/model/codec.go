package model

import (
	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// UnmarshalJSON decodes a rule object.
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = RuleFromAny(raw, 0)
	return nil
}

// MarshalJSON encodes the rule in its wire form.
func (r Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

// UnmarshalYAML decodes a rule object from YAML.
func (r *Rule) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*r = RuleFromAny(raw, 0)
	return nil
}

// MarshalYAML encodes the rule in its wire form.
func (r Rule) MarshalYAML() (any, error) {
	return r.Map(), nil
}

// UnmarshalJSON decodes a condition object such as {"min": 5}.
func (s *ConditionSet) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ConditionSetFromMap(raw)
	return nil
}

// MarshalJSON encodes the set as an object.
func (s ConditionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}

// UnmarshalYAML decodes a condition object from YAML.
func (s *ConditionSet) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = ConditionSetFromMap(raw)
	return nil
}

// MarshalYAML encodes the set as a mapping.
func (s ConditionSet) MarshalYAML() (any, error) {
	return s.Map(), nil
}

// UnmarshalJSON decodes a MatchSpec from either a literal or a list of
// condition groups.
func (m *MatchSpec) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MatchSpecFromAny(raw)
	return nil
}

// MarshalJSON encodes the match in its wire form.
func (m MatchSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Raw())
}

// UnmarshalJSON decodes a render group. Each dependency accepts a list of
// condition objects or a single one.
func (g *RenderRuleGroup) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	group, err := renderGroupFromMap(raw)
	if err != nil {
		return err
	}
	*g = group
	return nil
}

// UnmarshalYAML decodes a render group from YAML.
func (g *RenderRuleGroup) UnmarshalYAML(node *yaml.Node) error {
	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	group, err := renderGroupFromMap(raw)
	if err != nil {
		return err
	}
	*g = group
	return nil
}
