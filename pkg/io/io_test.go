package io

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/renderer"
)

const batchJSON = `[
  [
    {"sets": ["A"], "size": 12},
    {"sets": ["B"], "size": 12},
    {"sets": ["A", "B"], "size": 4, "label": "overlap"}
  ],
  [
    {"sets": ["X"], "size": 8}
  ]
]`

func TestReadBatch(t *testing.T) {
	batch, err := ReadBatch(strings.NewReader(batchJSON))
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 {
		t.Fatalf("len = %d, want 2", len(batch))
	}
	if len(batch[0]) != 3 || batch[0][2].Label != "overlap" {
		t.Errorf("first diagram = %+v", batch[0])
	}
}

func TestReadBatchSingleDiagram(t *testing.T) {
	single := `[{"sets": ["A"], "size": 3}, {"sets": ["B"], "size": 5}]`

	batch, err := ReadBatch(strings.NewReader(single))
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 1 || len(batch[0]) != 2 {
		t.Fatalf("batch = %+v, want one diagram with two areas", batch)
	}
}

func TestReadBatchErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		code errors.Code
	}{
		{"malformed json", `{not json`, errors.ErrCodeInvalidFormat},
		{"empty batch", `[]`, errors.ErrCodeInvalidInput},
		{"invalid diagram", `[[{"sets": [], "size": 1}]]`, errors.ErrCodeInvalidDiagram},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadBatch(strings.NewReader(tc.in))
			if !errors.Is(err, tc.code) {
				t.Errorf("err = %v, want code %s", err, tc.code)
			}
		})
	}
}

func TestImportBatchMissingFile(t *testing.T) {
	_, err := ImportBatch(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestImportBatchRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(path, []byte(batchJSON), 0o644); err != nil {
		t.Fatal(err)
	}

	batch, err := ImportBatch(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch) != 2 {
		t.Errorf("len = %d", len(batch))
	}
}

func TestExportArtifacts(t *testing.T) {
	dir := t.TempDir()
	outcomes := []renderer.Outcome{
		{Result: &renderer.Result{ID: "venn-0", SVG: "<svg>0</svg>"}},
		{Err: &renderer.LayoutError{Name: "Error", Message: "no solution"}},
		{Result: &renderer.Result{ID: "venn-2", SVG: "<svg>2</svg>", Screenshot: []byte{0x89, 'P', 'N', 'G'}}},
	}

	written, err := ExportArtifacts(outcomes, dir, "out")
	if err != nil {
		t.Fatal(err)
	}

	// venn-0 svg, venn-2 svg + png; the rejected index yields nothing.
	wantFiles := []string{"out-0.svg", "out-2.svg", "out-2.png"}
	if len(written) != len(wantFiles) {
		t.Fatalf("wrote %d artifacts, want %d: %+v", len(written), len(wantFiles), written)
	}
	for _, name := range wantFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "out-1.svg")); !os.IsNotExist(err) {
		t.Error("rejected outcome should not produce a file")
	}

	data, err := os.ReadFile(filepath.Join(dir, "out-0.svg"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<svg>0</svg>" {
		t.Errorf("svg content = %q", data)
	}
}

func TestExportArtifactsCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	outcomes := []renderer.Outcome{
		{Result: &renderer.Result{ID: "venn-0", SVG: "<svg/>"}},
	}
	if _, err := ExportArtifacts(outcomes, dir, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "venn-0.svg")); err != nil {
		t.Errorf("default base should be %q: %v", renderer.DefaultPrefix, err)
	}
}

func TestExportArtifactsRejectsEscapingPath(t *testing.T) {
	_, err := ExportArtifacts(nil, "../outside", "out")
	if !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("err = %v", err)
	}
}
