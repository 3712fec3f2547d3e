package pipeline

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/vennkit/vennkit/pkg/cache"
	"github.com/vennkit/vennkit/pkg/diagram"
	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/renderer"
)

// fakeRenderer fulfills every diagram with a synthetic SVG, except the
// indexes listed in reject.
type fakeRenderer struct {
	calls  atomic.Int32
	reject map[int]bool
	png    bool
}

func (f *fakeRenderer) Render(_ context.Context, diagrams []any, opts renderer.Options) ([]renderer.Outcome, error) {
	f.calls.Add(1)
	outcomes := make([]renderer.Outcome, len(diagrams))
	for i := range diagrams {
		if f.reject[i] {
			outcomes[i] = renderer.Outcome{Err: &renderer.LayoutError{Name: "Error", Message: "no layout"}}
			continue
		}
		res := &renderer.Result{
			ID:     renderer.ContainerID(opts.Prefix, i),
			SVG:    "<svg>" + res2str(i) + "</svg>",
			Width:  600,
			Height: 350,
		}
		if f.png && opts.Screenshot {
			res.Screenshot = []byte{0x89, 'P', 'N', 'G', byte(i)}
		}
		outcomes[i] = renderer.Outcome{Result: res}
	}
	return outcomes, nil
}

func res2str(i int) string { return string(rune('a' + i)) }

func testBatch() diagram.Batch {
	return diagram.Batch{
		{{Sets: []string{"A"}, Size: 10}, {Sets: []string{"B"}, Size: 10}, {Sets: []string{"A", "B"}, Size: 3}},
		{{Sets: []string{"X"}, Size: 5}},
	}
}

func TestOptionsDefaults(t *testing.T) {
	var opts Options
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatSVG {
		t.Errorf("formats = %v", opts.Formats)
	}
	if opts.Prefix != renderer.DefaultPrefix {
		t.Errorf("prefix = %q", opts.Prefix)
	}
	if opts.Screenshot {
		t.Error("svg-only run should not enable screenshots")
	}
}

func TestOptionsPNGImpliesScreenshot(t *testing.T) {
	opts := Options{Formats: []string{FormatSVG, FormatPNG}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if !opts.Screenshot {
		t.Error("png format must enable screenshots")
	}
}

func TestOptionsInvalidFormat(t *testing.T) {
	opts := Options{Formats: []string{"pdf"}}
	if err := opts.ValidateAndSetDefaults(); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("err = %v", err)
	}
}

func TestExecuteRendersAndCollectsArtifacts(t *testing.T) {
	fake := &fakeRenderer{}
	runner := NewRunner(nil, nil, fake, nil)

	result, err := runner.Execute(context.Background(), testBatch(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes = %d", len(result.Outcomes))
	}
	if len(result.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want one svg per diagram", len(result.Artifacts))
	}
	if result.Artifacts[0].Format != FormatSVG || result.Artifacts[0].Index != 0 {
		t.Errorf("artifact 0 = %+v", result.Artifacts[0])
	}
	if result.BatchHash == "" {
		t.Error("batch hash missing")
	}
	if result.CacheInfo.FullHit {
		t.Error("null cache cannot produce a full hit")
	}
}

func TestExecutePartialRejection(t *testing.T) {
	fake := &fakeRenderer{reject: map[int]bool{1: true}}
	runner := NewRunner(nil, nil, fake, nil)

	result, err := runner.Execute(context.Background(), testBatch(), Options{})
	if err != nil {
		t.Fatal(err)
	}

	if result.Stats.Rejected != 1 {
		t.Errorf("rejected = %d", result.Stats.Rejected)
	}
	if len(result.Artifacts) != 1 {
		t.Errorf("artifacts = %d, only the fulfilled diagram should export", len(result.Artifacts))
	}
	if result.Outcomes[1].Fulfilled() {
		t.Error("rejection must survive into the result")
	}
}

func TestExecuteServesFromCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeRenderer{png: true}
	runner := NewRunner(c, nil, fake, nil)
	opts := Options{Formats: []string{FormatSVG, FormatPNG}}

	first, err := runner.Execute(context.Background(), testBatch(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.FullHit {
		t.Fatal("first run cannot be a cache hit")
	}

	second, err := runner.Execute(context.Background(), testBatch(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.FullHit {
		t.Fatal("second identical run should be fully cached")
	}
	if fake.calls.Load() != 1 {
		t.Errorf("renderer called %d times, want 1", fake.calls.Load())
	}
	if len(second.Artifacts) != len(first.Artifacts) {
		t.Errorf("cached artifacts = %d, want %d", len(second.Artifacts), len(first.Artifacts))
	}
	for i := range second.Artifacts {
		if !second.Artifacts[i].FromCache {
			t.Errorf("artifact %d not marked FromCache", i)
		}
		if string(second.Artifacts[i].Data) != string(first.Artifacts[i].Data) {
			t.Errorf("artifact %d content differs after cache round trip", i)
		}
	}
	if len(second.Outcomes) != 2 || !second.Outcomes[0].Fulfilled() {
		t.Errorf("cached outcomes = %+v", second.Outcomes)
	}
	// Reconstructed outcomes restore IDs and content but not dimensions.
	if res := second.Outcomes[0].Result; res.ID != "venn-0" || res.SVG == "" {
		t.Errorf("reconstructed outcome 0 = %+v", res)
	}
}

func TestExecuteEmptyBatchIsNeverACacheHit(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeRenderer{}
	runner := NewRunner(c, nil, fake, nil)

	for i := 0; i < 2; i++ {
		result, err := runner.Execute(context.Background(), diagram.Batch{}, Options{})
		if err != nil {
			t.Fatal(err)
		}
		if result.CacheInfo.FullHit {
			t.Fatal("an empty batch stores nothing and must not report a full hit")
		}
		if len(result.Outcomes) != 0 || len(result.Artifacts) != 0 {
			t.Errorf("run %d: outcomes = %d, artifacts = %d", i, len(result.Outcomes), len(result.Artifacts))
		}
	}
}

func TestExecuteRefreshBypassesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeRenderer{}
	runner := NewRunner(c, nil, fake, nil)

	if _, err := runner.Execute(context.Background(), testBatch(), Options{}); err != nil {
		t.Fatal(err)
	}
	if _, err := runner.Execute(context.Background(), testBatch(), Options{Refresh: true}); err != nil {
		t.Fatal(err)
	}
	if fake.calls.Load() != 2 {
		t.Errorf("renderer called %d times, want 2 with refresh", fake.calls.Load())
	}
}

func TestExecuteOptionChangeMissesCache(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeRenderer{}
	runner := NewRunner(c, nil, fake, nil)

	if _, err := runner.Execute(context.Background(), testBatch(), Options{}); err != nil {
		t.Fatal(err)
	}
	result, err := runner.Execute(context.Background(), testBatch(), Options{
		VennConfig: map[string]any{"width": 900},
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.CacheInfo.FullHit {
		t.Error("different venn config must not share cached artifacts")
	}
}

func TestExecuteRejectedBatchNeverFullyCached(t *testing.T) {
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fake := &fakeRenderer{reject: map[int]bool{0: true}}
	runner := NewRunner(c, nil, fake, nil)

	for i := 0; i < 2; i++ {
		result, err := runner.Execute(context.Background(), testBatch(), Options{})
		if err != nil {
			t.Fatal(err)
		}
		if result.CacheInfo.FullHit {
			t.Fatal("a batch with a rejected diagram can never fully hit the cache")
		}
	}
	if fake.calls.Load() != 2 {
		t.Errorf("renderer called %d times, want 2", fake.calls.Load())
	}
}

func TestExecuteInvalidBatch(t *testing.T) {
	runner := NewRunner(nil, nil, &fakeRenderer{}, nil)
	bad := diagram.Batch{{{Sets: []string{"A"}, Size: -1}}}

	if _, err := runner.Execute(context.Background(), bad, Options{}); !errors.Is(err, errors.ErrCodeInvalidDiagram) {
		t.Errorf("err = %v", err)
	}
}
