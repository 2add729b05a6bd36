package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/schema"
)

// resolveDocument returns the request document, loading it when only a
// source was given.
func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (schema.Document, error) {
	if req.Document != nil {
		return *req.Document, nil
	}
	if req.Source == nil {
		return schema.Document{}, errors.New("orchestrator: source or document is required")
	}
	if o.loader == nil {
		return schema.Document{}, errors.New("orchestrator: loader is nil")
	}
	doc, err := o.loader.Load(ctx, req.Source)
	if err != nil {
		return schema.Document{}, fmt.Errorf("orchestrator: load document: %w", err)
	}
	return doc, nil
}

// adapterDefinitions runs the forced adapter, or the one Resolve picks, and
// falls back to the default adapter when nothing detected the document.
func (o *Orchestrator) adapterDefinitions(ctx context.Context, req Request, doc schema.Document) (map[string]model.FormDefinition, error) {
	if o.adapterRegistry == nil {
		return nil, errors.New("orchestrator: adapter registry is nil")
	}

	if format := strings.TrimSpace(req.Format); format != "" {
		return o.definitionsFrom(ctx, format, doc)
	}

	res, err := o.adapterRegistry.Resolve(ctx, doc)
	if errors.Is(err, ErrNoAdapterDetected) {
		if o.defaultAdapter == "" {
			return nil, errors.New("orchestrator: unable to detect format")
		}
		return o.definitionsFrom(ctx, o.defaultAdapter, doc)
	}
	if err != nil {
		return nil, err
	}
	for name, rejection := range res.Rejected {
		o.logger.Debug("orchestrator: adapter skipped",
			zap.String("adapter", name),
			zap.String("chosen", res.Adapter.Name()),
			zap.Error(rejection),
		)
	}
	return res.Definitions, nil
}

func (o *Orchestrator) definitionsFrom(ctx context.Context, name string, doc schema.Document) (map[string]model.FormDefinition, error) {
	adapter, err := o.adapterRegistry.Get(name)
	if err != nil {
		return nil, err
	}
	defs, err := adapter.Definitions(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %s adapter: %w", adapter.Name(), err)
	}
	return defs, nil
}

// selectDefinition picks req.FormID, or the only definition when the
// document holds exactly one.
func selectDefinition(defs map[string]model.FormDefinition, id string) (model.FormDefinition, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		if len(defs) == 1 {
			for _, def := range defs {
				return def, nil
			}
		}
		return model.FormDefinition{}, fmt.Errorf("orchestrator: form id is required (available: %s)", formatFormIDs(defs))
	}
	def, ok := defs[id]
	if !ok {
		return model.FormDefinition{}, fmt.Errorf("orchestrator: form %q not found (available: %s)", id, formatFormIDs(defs))
	}
	return def, nil
}

func formatFormIDs(defs map[string]model.FormDefinition) string {
	if len(defs) == 0 {
		return "none"
	}
	ids := make([]string, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}
