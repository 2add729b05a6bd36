// Package orchestrator wires the loader, format adapter and form runtime into
// a single entry point: load a document, pick the adapter that understands it,
// select a definition, apply transformers and mount a live form.
package orchestrator
