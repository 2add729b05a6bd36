package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/goliatone/go-formrules/pkg/schema"
)

const sample = `{"fields":[{"id":"name","type":"string"}]}`

func TestLoader_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "form.json")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	doc, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != sample {
		t.Fatalf("unexpected payload %q", doc.Raw())
	}
	if doc.Format() != schema.FormatJSON {
		t.Fatalf("expected json format, got %q", doc.Format())
	}
}

func TestLoader_FS(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{
		"forms/signup.yaml": {Data: []byte("fields:\n  - id: name\n    type: string\n")},
	}
	l := New(schema.NewLoaderOptions(schema.WithFileSystem(files)))

	doc, err := l.Load(context.Background(), schema.SourceFromFS("forms/signup.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def, err := doc.Definition()
	if err != nil {
		t.Fatalf("definition: %v", err)
	}
	if len(def.Fields) != 1 || def.Fields[0].ID != "name" {
		t.Fatalf("unexpected fields %+v", def.Fields)
	}

	if _, err := New(schema.NewLoaderOptions()).Load(context.Background(), schema.SourceFromFS("forms/signup.yaml")); err == nil {
		t.Fatalf("expected error without fs")
	}
}

func TestLoader_HTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(sample))
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	if _, err := New(schema.NewLoaderOptions()).Load(ctx, schema.SourceFromURL(srv.URL+"/form")); err == nil {
		t.Fatalf("expected http to be disabled by default")
	}

	l := New(schema.NewLoaderOptions(schema.WithHTTPClient(srv.Client())))
	doc, err := l.Load(ctx, schema.SourceFromURL(srv.URL+"/form"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(doc.Raw()) != sample {
		t.Fatalf("unexpected payload %q", doc.Raw())
	}

	_, err = l.Load(ctx, schema.SourceFromURL(srv.URL+"/missing"))
	if err == nil || !strings.Contains(err.Error(), "unexpected status") {
		t.Fatalf("expected status error, got %v", err)
	}
}
