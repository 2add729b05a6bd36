// Package formrules is the entry point of the conditional validation and
// visibility engine. It re-exports the constructors most callers need:
// load a definition document, mount a live form, set values and submit.
//
//	f, err := formrules.Mount(ctx, formrules.Request{Source: src, FormID: "signup"})
//	_ = f.SetValue("kind", "company")
//	values, err := f.Submit()
package formrules

import (
	"context"
	"errors"

	"github.com/goliatone/go-formrules/pkg/form"
	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/orchestrator"
)

var errEmptySource = errors.New("formrules: source is required")

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// ValidationError aliases form.ValidationError, the error returned by
// Form.Submit when blocking rules fail.
type ValidationError = form.ValidationError

// NewOrchestrator exposes the orchestrator constructor.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Mount loads req and returns a live form.
func Mount(ctx context.Context, req Request, options ...orchestrator.Option) (*form.Form, error) {
	return orchestrator.New(options...).Mount(ctx, req)
}

// MountDefinition mounts an in-memory definition.
func MountDefinition(def model.FormDefinition, options ...form.Option) (*form.Form, error) {
	return form.New(def, options...)
}
