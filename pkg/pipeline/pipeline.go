// Package pipeline provides the batch rendering pipeline shared by the
// CLI and the HTTP server.
//
// This package implements the complete import → render → export flow with
// per-artifact caching. By centralizing this logic, CLI and server behave
// identically and the caching scheme lives in one place.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, r, logger)
//	result, err := runner.Execute(ctx, batch, pipeline.Options{
//	    Formats:    []string{"svg", "png"},
//	    VennConfig: map[string]any{"width": 600},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, a := range result.Artifacts { ... }
//
// When every artifact of the batch is already cached, Execute returns
// without touching the browser at all.
package pipeline

import (
	"encoding/json"
	"time"

	"github.com/vennkit/vennkit/pkg/cache"
	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/renderer"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG: true,
	FormatPNG: true,
}

// Options configures one pipeline run. The render fields mirror
// [renderer.Options]; Formats and Refresh are pipeline concerns.
type Options struct {
	CSS        string         `json:"css,omitempty"`
	Screenshot bool           `json:"screenshot,omitempty"`
	VennConfig map[string]any `json:"venn_config,omitempty"`
	Prefix     string         `json:"prefix,omitempty"`

	// Formats selects the artifacts to produce. Defaults to ["svg"].
	// Requesting "png" implies Screenshot.
	Formats []string `json:"formats,omitempty"`

	// Refresh bypasses the artifact cache for this run.
	Refresh bool `json:"refresh,omitempty"`

	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks the options and applies defaults.
// Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	for _, f := range o.Formats {
		if !ValidFormats[f] {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be svg or png)", f)
		}
	}
	if o.wantsFormat(FormatPNG) {
		o.Screenshot = true
	}
	if o.Prefix == "" {
		o.Prefix = renderer.DefaultPrefix
	}
	if err := errors.ValidatePrefix(o.Prefix); err != nil {
		return err
	}
	o.validated = true
	return nil
}

func (o *Options) wantsFormat(format string) bool {
	for _, f := range o.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// renderOptions converts to the renderer's option type.
func (o *Options) renderOptions() renderer.Options {
	return renderer.Options{
		CSS:        o.CSS,
		Screenshot: o.Screenshot,
		VennConfig: o.VennConfig,
		Prefix:     o.Prefix,
	}
}

// configHash returns a stable hash of VennConfig for cache keys.
func (o *Options) configHash() string {
	if len(o.VennConfig) == 0 {
		return ""
	}
	// json.Marshal emits map keys sorted, so the hash is stable.
	data, err := json.Marshal(o.VennConfig)
	if err != nil {
		return "unhashable"
	}
	return cache.Hash(data)
}

// artifactKeyOpts returns cache key options for one artifact.
func (o *Options) artifactKeyOpts(format string, index int) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:     format,
		Index:      index,
		Prefix:     o.Prefix,
		Screenshot: o.Screenshot,
		CSS:        o.CSS,
		ConfigHash: o.configHash(),
	}
}

// Artifact is one rendered output produced by a pipeline run.
type Artifact struct {
	Index     int    // Diagram position in the batch
	Format    string // "svg" or "png"
	Data      []byte
	FromCache bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Outcomes holds one settled entry per input diagram, in order.
	// For a fully cached run the outcomes are reconstructed from the
	// stored artifact bytes: IDs, SVG content, and screenshots are
	// restored, but Width and Height are zero since dimensions are not
	// persisted alongside artifacts.
	Outcomes []renderer.Outcome

	// Artifacts lists the produced outputs for fulfilled diagrams,
	// ordered by diagram index then format.
	Artifacts []Artifact

	// BatchHash is the content hash of the input batch.
	BatchHash string

	// Stats contains timing and count information.
	Stats Stats

	// CacheInfo tracks how much of the run was served from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Diagrams   int
	Rejected   int
	RenderTime time.Duration
}

// CacheInfo tracks cache usage for a run.
type CacheInfo struct {
	ArtifactHits int  // Artifacts served from cache
	FullHit      bool // Whole batch served without rendering
}
