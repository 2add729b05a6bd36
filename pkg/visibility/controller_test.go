package visibility_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrules/pkg/compiler"
	"github.com/goliatone/go-formrules/pkg/model"
	"github.com/goliatone/go-formrules/pkg/visibility"
)

func showIf(t *testing.T, raw any) []model.RenderRuleGroup {
	t.Helper()
	groups, err := model.RenderRulesFromAny(raw)
	if err != nil {
		t.Fatalf("RenderRulesFromAny: %v", err)
	}
	return groups
}

func stringConfig() *compiler.FieldValidationConfig {
	cfg := compiler.NewFieldConfig(model.SchemaString, nil)
	return &cfg
}

// mountPair mounts A (always visible) and B shown while len(A) >= 5.
func mountPair(t *testing.T, ctrl *visibility.Controller, values map[string]any) {
	t.Helper()
	if err := ctrl.Mount(visibility.Node{ID: "A", Config: stringConfig()}, values); err != nil {
		t.Fatalf("mount A: %v", err)
	}
	err := ctrl.Mount(visibility.Node{
		ID:      "B",
		Rules:   showIf(t, []any{map[string]any{"A": []any{map[string]any{"min": 5}}}}),
		Config:  stringConfig(),
		Default: "world",
	}, values)
	if err != nil {
		t.Fatalf("mount B: %v", err)
	}
	ctrl.Settle()
}

func TestInitialStateFollowsInitialValues(t *testing.T) {
	t.Parallel()

	ctrl := visibility.New()
	mountPair(t, ctrl, map[string]any{"A": "hello", "B": nil})

	if !ctrl.Visible("B") {
		t.Fatalf("expected B to start visible when A is pre-filled")
	}
	if diff := cmp.Diff([]string{"A", "B"}, ctrl.Registry().IDs()); diff != "" {
		t.Fatalf("registry mismatch (-want +got):\n%s", diff)
	}
}

func TestMountQueuesRegistrationUntilSettle(t *testing.T) {
	t.Parallel()

	ctrl := visibility.New()
	if err := ctrl.Mount(visibility.Node{ID: "A", Config: stringConfig()}, nil); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if ctrl.Registry().Has("A") {
		t.Fatalf("registration must wait for Settle")
	}
	ctrl.Settle()
	if !ctrl.Registry().Has("A") {
		t.Fatalf("expected A registered after Settle")
	}
}

func TestHideDeregistersAndShowRestores(t *testing.T) {
	t.Parallel()

	cases := []struct {
		mode model.RestoreMode
		want any
	}{
		{mode: model.RestoreNone, want: nil},
		{mode: model.RestoreDefaultValue, want: "world"},
		{mode: model.RestoreUserInput, want: "bye"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.mode), func(t *testing.T) {
			t.Parallel()

			ctrl := visibility.New(visibility.WithRestoreMode(tc.mode))
			values := map[string]any{"A": "hello", "B": nil}
			mountPair(t, ctrl, values)

			values["B"] = "bye"
			ctrl.Retain("B", "bye")

			values["A"] = "hi"
			changes := ctrl.Refresh(values)
			if len(changes) != 1 || changes[0].Status.Visible() {
				t.Fatalf("expected B to hide, got %+v", changes)
			}
			if ctrl.Registry().Has("B") {
				t.Fatalf("hidden field must be deregistered")
			}
			if got, ok := ctrl.Retained("B"); !ok || got != "bye" {
				t.Fatalf("retained value lost on hide: %v %v", got, ok)
			}

			values["A"] = "hello"
			changes = ctrl.Refresh(values)
			if len(changes) != 1 || !changes[0].Restored {
				t.Fatalf("expected B to be restored, got %+v", changes)
			}
			if diff := cmp.Diff(tc.want, changes[0].Value); diff != "" {
				t.Fatalf("restored value mismatch (-want +got):\n%s", diff)
			}
			if !ctrl.Registry().Has("B") {
				t.Fatalf("visible field must be registered again")
			}
		})
	}
}

func TestPerFieldRestoreModeOverridesPolicy(t *testing.T) {
	t.Parallel()

	ctrl := visibility.New(visibility.WithRestoreMode(model.RestoreUserInput))
	values := map[string]any{"toggle": true, "note": nil}
	if err := ctrl.Mount(visibility.Node{ID: "toggle", Config: stringConfig()}, values); err != nil {
		t.Fatalf("mount: %v", err)
	}
	err := ctrl.Mount(visibility.Node{
		ID:          "note",
		Rules:       showIf(t, map[string]any{"toggle": map[string]any{"checked": true}}),
		Config:      stringConfig(),
		RestoreMode: model.RestoreNone,
	}, values)
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	ctrl.Retain("note", "kept")

	values["toggle"] = false
	ctrl.Refresh(values)
	values["toggle"] = true
	changes := ctrl.Refresh(values)
	if len(changes) != 1 || changes[0].Value != nil {
		t.Fatalf("expected blank restore under per-field none, got %+v", changes)
	}
	if got := ctrl.RestoreModeFor("note"); got != model.RestoreNone {
		t.Fatalf("RestoreModeFor = %q", got)
	}
}

func TestContainerHidesDescendants(t *testing.T) {
	t.Parallel()

	ctrl := visibility.New()
	values := map[string]any{"hasAddress": true, "street": "Main", "unit": nil}
	mounts := []visibility.Node{
		{ID: "hasAddress", Config: stringConfig()},
		{ID: "address", Rules: showIf(t, map[string]any{"hasAddress": map[string]any{"checked": true}})},
		{ID: "street", Parent: "address", Config: stringConfig()},
		{ID: "unit", Parent: "address", Config: stringConfig(), Rules: showIf(t, map[string]any{"street": map[string]any{"filled": true}})},
	}
	for _, n := range mounts {
		if err := ctrl.Mount(n, values); err != nil {
			t.Fatalf("mount %s: %v", n.ID, err)
		}
	}
	ctrl.Settle()
	if diff := cmp.Diff([]string{"hasAddress", "street", "unit"}, ctrl.Registry().IDs()); diff != "" {
		t.Fatalf("registry mismatch (-want +got):\n%s", diff)
	}

	values["hasAddress"] = false
	ctrl.Refresh(values)
	if diff := cmp.Diff([]string{"hasAddress"}, ctrl.Registry().IDs()); diff != "" {
		t.Fatalf("registry mismatch after hide (-want +got):\n%s", diff)
	}
	status, _ := ctrl.Status("street")
	if status.Reason != visibility.ReasonParentHidden {
		t.Fatalf("street reason = %q", status.Reason)
	}

	values["hasAddress"] = true
	values["street"] = ""
	ctrl.Refresh(values)
	if !ctrl.Visible("street") || ctrl.Visible("unit") {
		t.Fatalf("descendants must re-evaluate their own rules: street=%v unit=%v", ctrl.Visible("street"), ctrl.Visible("unit"))
	}
}

func TestMissingDependencyIsDistinguishable(t *testing.T) {
	t.Parallel()

	ctrl := visibility.New()
	values := map[string]any{"a": "x"}
	if err := ctrl.Mount(visibility.Node{ID: "ghosted", Rules: showIf(t, map[string]any{"ghost": map[string]any{"filled": true}}), Config: stringConfig()}, values); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := ctrl.Mount(visibility.Node{ID: "plain", Rules: showIf(t, map[string]any{"a": map[string]any{"equals": "y"}}), Config: stringConfig()}, values); err != nil {
		t.Fatalf("mount: %v", err)
	}

	ghosted, _ := ctrl.Status("ghosted")
	plain, _ := ctrl.Status("plain")
	if ghosted.Reason != visibility.ReasonMissingDependency || plain.Reason != visibility.ReasonRules {
		t.Fatalf("reasons = %q / %q", ghosted.Reason, plain.Reason)
	}
	if diff := cmp.Diff([]string{"ghost"}, ghosted.Missing); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestRefreshSettlesChainedRestores(t *testing.T) {
	t.Parallel()

	ctrl := visibility.New(visibility.WithRestoreMode(model.RestoreDefaultValue))
	values := map[string]any{"plan": "free", "seats": nil, "invoice": nil}
	nodes := []visibility.Node{
		{ID: "invoice", Rules: showIf(t, map[string]any{"seats": map[string]any{"moreThan": 5}}), Config: stringConfig()},
		{ID: "plan", Config: stringConfig()},
		{ID: "seats", Rules: showIf(t, map[string]any{"plan": map[string]any{"equals": "team"}}), Config: stringConfig(), Default: 10},
	}
	for _, n := range nodes {
		if err := ctrl.Mount(n, values); err != nil {
			t.Fatalf("mount %s: %v", n.ID, err)
		}
	}
	ctrl.Settle()

	values["plan"] = "team"
	changes := ctrl.Refresh(values)
	var ids []string
	for _, change := range changes {
		ids = append(ids, change.FieldID)
	}
	if diff := cmp.Diff([]string{"seats", "invoice"}, ids); diff != "" {
		t.Fatalf("changes mismatch (-want +got):\n%s", diff)
	}
	if !ctrl.Visible("invoice") {
		t.Fatalf("expected invoice to appear once seats restored its default")
	}
}

func TestUnmountDeregistersSubtree(t *testing.T) {
	t.Parallel()

	var events []string
	ctrl := visibility.New(visibility.WithHooks(visibility.Hooks{
		OnMount:   func(e visibility.Event) { events = append(events, "mount:"+e.FieldID) },
		OnUnmount: func(e visibility.Event) { events = append(events, "unmount:"+e.FieldID) },
	}))
	if err := ctrl.Mount(visibility.Node{ID: "group"}, nil); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := ctrl.Mount(visibility.Node{ID: "child", Parent: "group", Config: stringConfig()}, nil); err != nil {
		t.Fatalf("mount: %v", err)
	}
	ctrl.Settle()

	ctrl.Unmount("group")
	if ctrl.Registry().Len() != 0 || len(ctrl.Mounted()) != 0 {
		t.Fatalf("expected subtree removed, registry=%v mounted=%v", ctrl.Registry().IDs(), ctrl.Mounted())
	}
	want := []string{"mount:group", "mount:child", "unmount:child", "unmount:group"}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestMountErrors(t *testing.T) {
	t.Parallel()

	ctrl := visibility.New()
	if err := ctrl.Mount(visibility.Node{}, nil); !errors.Is(err, visibility.ErrEmptyID) {
		t.Fatalf("expected ErrEmptyID, got %v", err)
	}
	if err := ctrl.Mount(visibility.Node{ID: "x", Parent: "nope"}, nil); !errors.Is(err, visibility.ErrUnknownParent) {
		t.Fatalf("expected ErrUnknownParent, got %v", err)
	}
	if err := ctrl.Mount(visibility.Node{ID: "x"}, nil); err != nil {
		t.Fatalf("mount: %v", err)
	}
	if err := ctrl.Mount(visibility.Node{ID: "x"}, nil); !errors.Is(err, visibility.ErrAlreadyMounted) {
		t.Fatalf("expected ErrAlreadyMounted, got %v", err)
	}
}
