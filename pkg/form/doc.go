// Package form wires the rule engine into a single stateful object: it mounts
// a FormDefinition, owns the value store, keeps visibility and the validation
// registry in step on every edit, and produces submissions that only contain
// fields taking part in validation.
//
// A Form assumes one writer at a time, like the UI update queue it stands in
// for. Wrap it in your own lock if several goroutines edit the same form.
package form
