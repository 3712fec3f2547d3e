package renderer

import (
	"context"
	"testing"

	"github.com/vennkit/vennkit/pkg/assets"
	"github.com/vennkit/vennkit/pkg/errors"
)

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	opts.setDefaults()

	if opts.Prefix != DefaultPrefix {
		t.Errorf("prefix = %q, want %q", opts.Prefix, DefaultPrefix)
	}
	if opts.VennConfig == nil {
		t.Error("vennConfig should default to an empty map")
	}
	if opts.Screenshot {
		t.Error("screenshot should default to off")
	}
}

func TestOptionsDefaultsKeepExplicitValues(t *testing.T) {
	opts := Options{
		Prefix:     "euler",
		VennConfig: map[string]any{"width": 640},
	}
	opts.setDefaults()

	if opts.Prefix != "euler" {
		t.Errorf("prefix = %q", opts.Prefix)
	}
	if opts.VennConfig["width"] != 640 {
		t.Error("vennConfig was replaced")
	}
}

func TestRenderRejectsInvalidPrefix(t *testing.T) {
	fake := newFakeBrowser()
	r, err := New(withPool(fake.pool()))
	if err != nil {
		t.Fatal(err)
	}

	for _, prefix := range []string{"0start", "has space", "semi;colon", "<tag>"} {
		_, err := r.Render(context.Background(), []any{map[string]any{}}, Options{Prefix: prefix})
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("prefix %q: err = %v, want validation error", prefix, err)
		}
	}

	// Validation happens before the browser is touched.
	if got := fake.launches.Load(); got != 0 {
		t.Errorf("launches = %d, want 0", got)
	}
}

func TestRenderEmptyBatch(t *testing.T) {
	fake := newFakeBrowser()
	r, err := New(withPool(fake.pool()))
	if err != nil {
		t.Fatal(err)
	}

	// A nil slice is the idiomatic empty batch and must behave like one.
	for _, diagrams := range [][]any{nil, {}} {
		outcomes, err := r.Render(context.Background(), diagrams, Options{})
		if err != nil {
			t.Fatalf("empty batch: %v", err)
		}
		if len(outcomes) != 0 {
			t.Errorf("outcomes = %d, want 0", len(outcomes))
		}
	}

	if got := fake.launches.Load(); got != 0 {
		t.Errorf("launches = %d, an empty batch must not start a browser", got)
	}
}

func TestNewAppliesOptions(t *testing.T) {
	lib := assets.Source{Content: []byte("window.venn = {};")}
	r, err := New(
		WithDocumentURL("http://localhost:7777/blank.html"),
		WithLibrary(lib),
	)
	if err != nil {
		t.Fatal(err)
	}
	if r.docURL != "http://localhost:7777/blank.html" {
		t.Errorf("docURL = %q", r.docURL)
	}
	if string(r.library.Content) != string(lib.Content) {
		t.Error("library source not applied")
	}
	if r.d3.URL == "" {
		t.Error("d3 default should remain set")
	}
}

func TestNewDoesNotLaunchBrowser(t *testing.T) {
	fake := newFakeBrowser()
	if _, err := New(withPool(fake.pool())); err != nil {
		t.Fatal(err)
	}
	if fake.launches.Load() != 0 {
		t.Error("construction must not launch a browser")
	}
}

func TestCloseWithoutRender(t *testing.T) {
	fake := newFakeBrowser()
	r, err := New(withPool(fake.pool()))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
	if fake.closes.Load() != 0 {
		t.Error("nothing to close")
	}
}
