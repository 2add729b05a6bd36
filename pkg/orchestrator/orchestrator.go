package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	internalLoader "github.com/goliatone/go-formrules/internal/loader"
	internalParser "github.com/goliatone/go-formrules/internal/openapi/parser"
	"github.com/goliatone/go-formrules/pkg/form"
	"github.com/goliatone/go-formrules/pkg/model"
	pkgopenapi "github.com/goliatone/go-formrules/pkg/openapi"
	"github.com/goliatone/go-formrules/pkg/predicate"
	"github.com/goliatone/go-formrules/pkg/schema"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a document loader.
func WithLoader(loader schema.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithParser injects the OpenAPI parser used by the default openapi adapter.
func WithParser(parser pkgopenapi.Parser) Option {
	return func(o *Orchestrator) {
		o.parser = parser
	}
}

// WithAdapterRegistry replaces the adapter registry. The built-in adapters
// are registered into it when missing.
func WithAdapterRegistry(registry *AdapterRegistry) Option {
	return func(o *Orchestrator) {
		o.adapterRegistry = registry
	}
}

// WithAdapters registers additional format adapters in the native tier.
func WithAdapters(adapters ...schema.FormatAdapter) Option {
	return func(o *Orchestrator) {
		for _, adapter := range adapters {
			o.extraAdapters = append(o.extraAdapters, registeredAdapter{adapter: adapter, priority: PriorityNative})
		}
	}
}

// WithPrioritizedAdapter registers an adapter in a specific detection tier.
func WithPrioritizedAdapter(adapter schema.FormatAdapter, priority int) Option {
	return func(o *Orchestrator) {
		o.extraAdapters = append(o.extraAdapters, registeredAdapter{adapter: adapter, priority: priority})
	}
}

// WithDefaultAdapter names the adapter used when detection finds nothing.
func WithDefaultAdapter(name string) Option {
	return func(o *Orchestrator) {
		o.defaultAdapter = name
	}
}

// WithTransformer registers a Transformer that rewrites definitions before
// they are mounted. Transformers run in registration order.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithDecorators registers decorators passed to every mounted form.
func WithDecorators(decorators ...model.Decorator) Option {
	return func(o *Orchestrator) {
		o.decorators = append(o.decorators, decorators...)
	}
}

// WithPredicates shares a predicate registry across every mounted form.
func WithPredicates(registry *predicate.Registry) Option {
	return func(o *Orchestrator) {
		o.predicates = registry
	}
}

// WithLogger sets the logger handed to mounted forms.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates document loading, format detection and form
// mounting.
type Orchestrator struct {
	loader          schema.Loader
	parser          pkgopenapi.Parser
	adapterRegistry *AdapterRegistry
	extraAdapters   []registeredAdapter
	defaultAdapter  string
	transformers    []Transformer
	decorators      []model.Decorator
	predicates      *predicate.Registry
	logger          *zap.Logger
	initialiseErr   error
}

// New constructs an Orchestrator; missing dependencies fall back to the
// built-in loader, parser and adapters.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultAdapter: schema.NativeAdapterName,
	}
	for _, opt := range options {
		if opt != nil {
			opt(o)
		}
	}
	o.applyDefaults()
	return o
}

// Request describes which document to read and which form to build.
type Request struct {
	// Source locates the document. Optional when Document is supplied.
	Source schema.Source

	// Document bypasses the loader.
	Document *schema.Document

	// Format forces an adapter by name instead of detecting one.
	Format string

	// FormID selects a definition when the document holds several.
	FormID string

	// Values seeds the mounted form.
	Values map[string]any

	// FormOptions are appended after the orchestrator's own form options.
	FormOptions []form.Option
}

// Definitions loads the document and returns every definition the adapter
// produced, after transformers ran.
func (o *Orchestrator) Definitions(ctx context.Context, req Request) (map[string]model.FormDefinition, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if o.initialiseErr != nil {
		return nil, o.initialiseErr
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return nil, err
	}
	defs, err := o.adapterDefinitions(ctx, req, doc)
	if err != nil {
		return nil, err
	}

	for id, def := range defs {
		if err := o.applyTransformers(ctx, &def); err != nil {
			return nil, err
		}
		defs[id] = def
	}
	return defs, nil
}

// Definition returns the definition selected by req.FormID.
func (o *Orchestrator) Definition(ctx context.Context, req Request) (model.FormDefinition, error) {
	defs, err := o.Definitions(ctx, req)
	if err != nil {
		return model.FormDefinition{}, err
	}
	return selectDefinition(defs, req.FormID)
}

// Mount builds a live form for the selected definition.
func (o *Orchestrator) Mount(ctx context.Context, req Request) (*form.Form, error) {
	def, err := o.Definition(ctx, req)
	if err != nil {
		return nil, err
	}

	options := []form.Option{form.WithLogger(o.logger)}
	if o.predicates != nil {
		options = append(options, form.WithPredicates(o.predicates))
	}
	if len(o.decorators) > 0 {
		options = append(options, form.WithDecorators(o.decorators...))
	}
	if len(req.Values) > 0 {
		options = append(options, form.WithInitialValues(req.Values))
	}
	options = append(options, req.FormOptions...)

	f, err := form.New(def, options...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: mount %q: %w", def.ID, err)
	}
	return f, nil
}

// Adapters lists the registered adapter names.
func (o *Orchestrator) Adapters() []string {
	if o.adapterRegistry == nil {
		return nil
	}
	return o.adapterRegistry.List()
}

func (o *Orchestrator) applyTransformers(ctx context.Context, def *model.FormDefinition) error {
	for _, t := range o.transformers {
		if err := t.Transform(ctx, def); err != nil {
			return fmt.Errorf("orchestrator: transform %q: %w", def.ID, err)
		}
	}
	if err := def.Check(); err != nil {
		return fmt.Errorf("orchestrator: transformed %q: %w", def.ID, err)
	}
	return nil
}

func (o *Orchestrator) applyDefaults() {
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.loader == nil {
		o.loader = internalLoader.New(schema.NewLoaderOptions())
	}
	if o.parser == nil {
		o.parser = internalParser.New(pkgopenapi.NewParserOptions())
	}
	if o.adapterRegistry == nil {
		o.adapterRegistry = NewAdapterRegistry()
	}

	builtins := []registeredAdapter{
		{adapter: schema.NativeAdapter{}, priority: PriorityNative},
		{adapter: pkgopenapi.NewAdapter(o.parser), priority: PriorityOpenAPI},
	}
	for _, entry := range builtins {
		if !o.adapterRegistry.Has(entry.adapter.Name()) {
			o.adapterRegistry.MustRegister(entry.adapter, entry.priority)
		}
	}
	for _, entry := range o.extraAdapters {
		if err := o.adapterRegistry.Register(entry.adapter, entry.priority); err != nil {
			o.initialiseErr = err
			return
		}
	}
}
