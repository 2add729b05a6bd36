package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/schema"
)

type stubAdapter struct {
	name   string
	detect bool
	defs   map[string]model.FormDefinition
	err    error
	calls  *[]string
}

func (s stubAdapter) Name() string { return s.name }

func (s stubAdapter) Detect(schema.Source, []byte) bool { return s.detect }

func (s stubAdapter) Definitions(context.Context, schema.Document) (map[string]model.FormDefinition, error) {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name)
	}
	return s.defs, s.err
}

func oneForm(id string) map[string]model.FormDefinition {
	return map[string]model.FormDefinition{id: {ID: id, Fields: []model.FieldDefinition{{ID: "a"}}}}
}

func stubDocument(t *testing.T) schema.Document {
	t.Helper()
	return schema.MustNewDocument(schema.SourceFromFS("inline.json"), []byte(`{"fields":[]}`))
}

func adapterNames(tiers [][]schema.FormatAdapter) [][]string {
	out := make([][]string, 0, len(tiers))
	for _, tier := range tiers {
		var names []string
		for _, adapter := range tier {
			names = append(names, adapter.Name())
		}
		out = append(out, names)
	}
	return out
}

func TestAdapterRegistry_Register(t *testing.T) {
	t.Parallel()

	reg := NewAdapterRegistry()
	if err := reg.Register(stubAdapter{name: "Beta"}, PriorityNative); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register(stubAdapter{name: " beta "}, PriorityOpenAPI); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if err := reg.Register(stubAdapter{name: "  "}, PriorityNative); err == nil {
		t.Fatalf("expected empty name error")
	}
	if err := reg.Register(nil, PriorityNative); err == nil {
		t.Fatalf("expected nil adapter error")
	}
	reg.MustRegister(stubAdapter{name: "alpha"}, PriorityFallback)

	if diff := cmp.Diff([]string{"alpha", "beta"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if priority, ok := reg.Priority("BETA"); !ok || priority != PriorityNative {
		t.Fatalf("expected beta in native tier, got %d %v", priority, ok)
	}
	if _, err := reg.Get("gamma"); err == nil {
		t.Fatalf("expected missing adapter error")
	}
}

func TestAdapterRegistry_CandidatesGroupsTiers(t *testing.T) {
	t.Parallel()

	reg := NewAdapterRegistry()
	reg.MustRegister(stubAdapter{name: "zeta", detect: true}, PriorityNative)
	reg.MustRegister(stubAdapter{name: "alpha", detect: true}, PriorityNative)
	reg.MustRegister(stubAdapter{name: "marked", detect: true}, PriorityOpenAPI)
	reg.MustRegister(stubAdapter{name: "silent"}, PriorityOpenAPI)
	reg.MustRegister(stubAdapter{name: "last", detect: true}, PriorityFallback)

	want := [][]string{{"marked"}, {"alpha", "zeta"}, {"last"}}
	if diff := cmp.Diff(want, adapterNames(reg.Candidates(nil, nil))); diff != "" {
		t.Fatalf("tiers mismatch (-want +got):\n%s", diff)
	}
}

func TestAdapterRegistry_ResolveStopsAtFirstProductiveTier(t *testing.T) {
	t.Parallel()

	var calls []string
	reg := NewAdapterRegistry()
	reg.MustRegister(stubAdapter{name: "strict", detect: true, err: errors.New("not for me"), calls: &calls}, PriorityOpenAPI)
	reg.MustRegister(stubAdapter{name: "native", detect: true, defs: oneForm("signup"), calls: &calls}, PriorityNative)
	reg.MustRegister(stubAdapter{name: "loose", detect: true, defs: oneForm("other"), calls: &calls}, PriorityFallback)

	res, err := reg.Resolve(context.Background(), stubDocument(t))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Adapter.Name() != "native" {
		t.Fatalf("expected native adapter, got %q", res.Adapter.Name())
	}
	if _, ok := res.Definitions["signup"]; !ok {
		t.Fatalf("expected signup definition, got %v", res.Definitions)
	}
	if _, ok := res.Rejected["strict"]; !ok {
		t.Fatalf("expected strict adapter to be recorded as rejected")
	}
	if diff := cmp.Diff([]string{"strict", "native"}, calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestAdapterRegistry_ResolveErrors(t *testing.T) {
	t.Parallel()

	doc := stubDocument(t)

	empty := NewAdapterRegistry()
	empty.MustRegister(stubAdapter{name: "quiet"}, PriorityNative)
	if _, err := empty.Resolve(context.Background(), doc); !errors.Is(err, ErrNoAdapterDetected) {
		t.Fatalf("expected ErrNoAdapterDetected, got %v", err)
	}

	tied := NewAdapterRegistry()
	tied.MustRegister(stubAdapter{name: "one", detect: true, defs: oneForm("a")}, PriorityNative)
	tied.MustRegister(stubAdapter{name: "two", detect: true, defs: oneForm("b")}, PriorityNative)
	_, err := tied.Resolve(context.Background(), doc)
	if err == nil || !strings.Contains(err.Error(), "one, two") {
		t.Fatalf("expected ambiguity error naming both adapters, got %v", err)
	}

	boom := errors.New("boom")
	failing := NewAdapterRegistry()
	failing.MustRegister(stubAdapter{name: "broken", detect: true, err: boom}, PriorityNative)
	failing.MustRegister(stubAdapter{name: "hollow", detect: true}, PriorityFallback)
	_, err = failing.Resolve(context.Background(), doc)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped adapter error, got %v", err)
	}
	if !strings.Contains(err.Error(), "hollow: no definitions") {
		t.Fatalf("expected empty adapter to be reported, got %v", err)
	}
}
