package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formrules/pkg/model"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FileWithEnvExpansion(t *testing.T) {
	t.Setenv("FORMRULES_TEST_SCOPE", "tenant-a")

	path := writeConfig(t, "formrules.yaml", `
log_level: debug
restore_mode: ${FORMRULES_TEST_MODE:-user-input}
scope: ${FORMRULES_TEST_SCOPE:-fallback}
strict: ${FORMRULES_TEST_STRICT:-true}
http_timeout: 3s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	want := &Config{
		LogLevel:    "debug",
		RestoreMode: "user-input",
		Scope:       "tenant-a",
		Strict:      true,
		Output:      "json",
		HTTPTimeout: 3 * time.Second,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	mode, ok, err := cfg.Restore()
	if err != nil || !ok || mode != model.RestoreUserInput {
		t.Fatalf("unexpected restore mode %q %v %v", mode, ok, err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FORMRULES_OUTPUT", "yaml")

	path := writeConfig(t, "formrules.json", `{"output": "pretty"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Output != "yaml" {
		t.Fatalf("expected env override, got %q", cfg.Output)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit file")
	}

	path := writeConfig(t, "formrules.yaml", "restore_mode: sometimes\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected invalid restore mode error")
	}
}

func TestExpandEnvWithDefaults(t *testing.T) {
	t.Setenv("FORMRULES_TEST_SET", "value")

	cases := map[string]string{
		"${FORMRULES_TEST_SET}":               "value",
		"${FORMRULES_TEST_UNSET:-fallback}":   "fallback",
		"${FORMRULES_TEST_UNSET}":             "",
		"prefix-${FORMRULES_TEST_SET}-suffix": "prefix-value-suffix",
	}
	for in, want := range cases {
		if got := expandEnvWithDefaults(in); got != want {
			t.Fatalf("expand(%q) = %q, want %q", in, got, want)
		}
	}
}
