// Package model defines the declarative wire contract consumed by the rule
// engine: per-field validation rules (including nested `when` branches),
// render rules that drive visibility, and the form/field definitions that tie
// them together. Documents may be authored in JSON or YAML; both decode into
// the same typed structures so the compiler and the visibility controller
// never have to inspect raw maps.
package model
