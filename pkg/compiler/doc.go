// Package compiler turns per-field rule lists into executable validators.
//
// Fields register a FieldValidationConfig in a ValidationRegistry when they
// mount and leave it when they unmount or become hidden. BuildSchema reads the
// registry, binds every when-clause (nested ones included) to a clone of its
// dependency's type schema, records the dependency pairs it walked, and
// assembles an object validator that tolerates the mutual references those
// pairs describe.
//
// Configuration problems never abort compilation. Unknown condition names,
// malformed arguments and when-clauses referencing unregistered fields are
// reported as Warnings and logged, and the offending rule is skipped.
package compiler
