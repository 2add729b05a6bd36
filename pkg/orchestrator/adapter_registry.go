package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/schema"
)

// Detection priorities. Higher tiers are tried first.
const (
	PriorityFallback = 0
	PriorityNative   = 10
	PriorityOpenAPI  = 20
)

// ErrNoAdapterDetected is returned by Resolve when no adapter recognises the
// payload.
var ErrNoAdapterDetected = errors.New("orchestrator: no adapter detected the document")

type registeredAdapter struct {
	adapter  schema.FormatAdapter
	priority int
}

// AdapterRegistry stores format adapters by name together with the priority
// tier they are tried in.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[string]registeredAdapter
}

// NewAdapterRegistry creates an empty adapter registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{
		adapters: make(map[string]registeredAdapter),
	}
}

// Register adds an adapter by its Name() in the given priority tier.
// Duplicate names return an error.
func (r *AdapterRegistry) Register(adapter schema.FormatAdapter, priority int) error {
	if adapter == nil {
		return errors.New("orchestrator: adapter is required")
	}
	name := normalizeAdapterName(adapter.Name())
	if name == "" {
		return errors.New("orchestrator: adapter name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("orchestrator: adapter %q already registered", name)
	}
	r.adapters[name] = registeredAdapter{adapter: adapter, priority: priority}
	return nil
}

// MustRegister panics on registration failure.
func (r *AdapterRegistry) MustRegister(adapter schema.FormatAdapter, priority int) {
	if err := r.Register(adapter, priority); err != nil {
		panic(err)
	}
}

// Get retrieves an adapter by name.
func (r *AdapterRegistry) Get(name string) (schema.FormatAdapter, error) {
	key := normalizeAdapterName(name)
	if key == "" {
		return nil, errors.New("orchestrator: adapter name is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.adapters[key]
	if !ok {
		return nil, fmt.Errorf("orchestrator: adapter %q not found", key)
	}
	return entry.adapter, nil
}

// Priority reports the tier an adapter was registered in.
func (r *AdapterRegistry) Priority(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.adapters[normalizeAdapterName(name)]
	return entry.priority, ok
}

// Has reports whether an adapter is registered.
func (r *AdapterRegistry) Has(name string) bool {
	_, ok := r.Priority(name)
	return ok
}

// List returns the registered adapter names in alphabetical order.
func (r *AdapterRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Candidates returns the adapters whose Detect accepts the payload, grouped
// by priority tier from highest to lowest. Within a tier adapters are ordered
// by name.
func (r *AdapterRegistry) Candidates(src schema.Source, raw []byte) [][]schema.FormatAdapter {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	matched := make([]registeredAdapter, 0, len(r.adapters))
	for _, entry := range r.adapters {
		if entry.adapter != nil && entry.adapter.Detect(src, raw) {
			matched = append(matched, entry)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].priority != matched[j].priority {
			return matched[i].priority > matched[j].priority
		}
		return normalizeAdapterName(matched[i].adapter.Name()) < normalizeAdapterName(matched[j].adapter.Name())
	})

	var tiers [][]schema.FormatAdapter
	for idx, entry := range matched {
		if idx == 0 || entry.priority != matched[idx-1].priority {
			tiers = append(tiers, nil)
		}
		tiers[len(tiers)-1] = append(tiers[len(tiers)-1], entry.adapter)
	}
	return tiers
}

// Resolution is the adapter chosen for a document and the definitions it
// produced.
type Resolution struct {
	Adapter     schema.FormatAdapter
	Definitions map[string]model.FormDefinition

	// Rejected holds adapters that detected the payload but produced no
	// definitions, keyed by adapter name.
	Rejected map[string]error
}

// Resolve tries candidate adapters tier by tier and returns the first one
// that yields at least one definition. Lower tiers are not consulted once a
// tier succeeds; two adapters succeeding in the same tier is ambiguous.
func (r *AdapterRegistry) Resolve(ctx context.Context, doc schema.Document) (Resolution, error) {
	tiers := r.Candidates(doc.Source(), doc.Raw())
	if len(tiers) == 0 {
		return Resolution{}, ErrNoAdapterDetected
	}

	rejected := make(map[string]error)
	var failures []error
	for _, tier := range tiers {
		var found []Resolution
		for _, adapter := range tier {
			name := adapter.Name()
			defs, err := adapter.Definitions(ctx, doc)
			if err == nil && len(defs) == 0 {
				err = errors.New("no definitions")
			}
			if err != nil {
				rejected[name] = err
				failures = append(failures, fmt.Errorf("%s: %w", name, err))
				continue
			}
			found = append(found, Resolution{Adapter: adapter, Definitions: defs})
		}

		switch len(found) {
		case 0:
			continue
		case 1:
			found[0].Rejected = rejected
			return found[0], nil
		default:
			adapters := make([]schema.FormatAdapter, 0, len(found))
			for _, res := range found {
				adapters = append(adapters, res.Adapter)
			}
			return Resolution{}, fmt.Errorf("orchestrator: multiple adapters yield definitions (%s), specify format", formatAdapterNames(adapters))
		}
	}
	return Resolution{Rejected: rejected}, fmt.Errorf("orchestrator: no detected adapter produced definitions: %w", errors.Join(failures...))
}

func normalizeAdapterName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func formatAdapterNames(adapters []schema.FormatAdapter) string {
	names := make([]string, 0, len(adapters))
	for _, adapter := range adapters {
		if adapter == nil {
			continue
		}
		if name := strings.TrimSpace(adapter.Name()); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}
