// Package validator provides the native schema combinators the compiler
// targets: typed schemas with coercion, transforms, ordered tests and
// conditional branches keyed on sibling values, plus an object composite that
// orders fields by their dependencies and rejects structural cycles unless the
// offending edges are explicitly whitelisted.
//
// Schemas are immutable. Every builder method returns a new Schema, so a
// compiled schema can be cloned and extended without affecting the original.
package validator
