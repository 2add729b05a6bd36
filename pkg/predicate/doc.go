// Package predicate holds the named condition functions shared by the schema
// compiler and the condition evaluator. Structural conditions (required, min,
// matches, ...) are fixed and dispatched through a typed table; semantic
// conditions (filled, equals, includes, ...) live in a Registry that callers
// extend at runtime, either globally or inside a scope.
package predicate
