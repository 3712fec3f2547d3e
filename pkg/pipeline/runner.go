package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vennkit/vennkit/pkg/cache"
	"github.com/vennkit/vennkit/pkg/diagram"
	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/renderer"
)

// Renderer is the rendering dependency of the pipeline. *renderer.Renderer
// satisfies it; tests inject fakes.
type Renderer interface {
	Render(ctx context.Context, diagrams []any, opts renderer.Options) ([]renderer.Outcome, error)
}

// Runner executes the rendering pipeline with per-artifact caching.
//
// The Runner is stateless except for its collaborators; it stores no run
// results. Multiple goroutines can safely share one Runner.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Renderer Renderer
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching (NullCache); a
// nil keyer uses the default key scheme; a nil logger uses log.Default().
// The renderer is required.
func NewRunner(c cache.Cache, keyer cache.Keyer, r Renderer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Renderer: r,
		Logger:   logger,
	}
}

// Execute renders the batch and produces the requested artifacts.
//
// Artifacts of previous runs are reused from the cache when the diagram
// content and every shaping option match; when the whole batch is served
// from cache the browser is never started. A run with partial rejections
// still caches its fulfilled artifacts.
func (r *Runner) Execute(ctx context.Context, batch diagram.Batch, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}

	hash, err := batch.Hash()
	if err != nil {
		return nil, err
	}

	result := &Result{
		BatchHash: hash,
		Stats:     Stats{Diagrams: len(batch)},
	}

	if !opts.Refresh {
		if artifacts, ok := r.fromCache(ctx, hash, len(batch), opts); ok {
			result.Artifacts = artifacts
			result.CacheInfo = CacheInfo{ArtifactHits: len(artifacts), FullHit: true}
			result.Outcomes = outcomesFromArtifacts(artifacts, len(batch), opts.Prefix)
			r.Logger.Debug("batch served from cache", "diagrams", len(batch), "artifacts", len(artifacts))
			return result, nil
		}
	}

	start := time.Now()
	outcomes, err := r.Renderer.Render(ctx, batch.Payload(), opts.renderOptions())
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "render batch")
	}
	result.Outcomes = outcomes
	result.Stats.RenderTime = time.Since(start)

	for i, o := range outcomes {
		if !o.Fulfilled() {
			result.Stats.Rejected++
			continue
		}
		for _, format := range opts.Formats {
			data := artifactData(o.Result, format)
			if data == nil {
				continue
			}
			result.Artifacts = append(result.Artifacts, Artifact{Index: i, Format: format, Data: data})

			key := r.Keyer.ArtifactKey(hash, opts.artifactKeyOpts(format, i))
			if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
				r.Logger.Warn("cache artifact", "index", i, "format", format, "error", err)
			}
		}
	}

	r.Logger.Info("rendered batch",
		"diagrams", len(batch),
		"rejected", result.Stats.Rejected,
		"artifacts", len(result.Artifacts),
		"duration", result.Stats.RenderTime.Round(time.Millisecond))

	return result, nil
}

// fromCache tries to satisfy every artifact of the batch from cache.
// All-or-nothing: a single miss falls back to a full render, since the
// browser must start anyway.
func (r *Runner) fromCache(ctx context.Context, hash string, n int, opts Options) ([]Artifact, bool) {
	// Nothing is ever stored for an empty batch; it cannot hit.
	if n == 0 {
		return nil, false
	}
	var artifacts []Artifact
	for i := 0; i < n; i++ {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(hash, opts.artifactKeyOpts(format, i))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				return nil, false
			}
			artifacts = append(artifacts, Artifact{Index: i, Format: format, Data: data, FromCache: true})
		}
	}
	return artifacts, true
}

// artifactData extracts one format's bytes from a result. PNG is only
// present when the render captured screenshots.
func artifactData(res *renderer.Result, format string) []byte {
	switch format {
	case FormatSVG:
		return []byte(res.SVG)
	case FormatPNG:
		return res.Screenshot
	default:
		return nil
	}
}

// outcomesFromArtifacts reconstructs settled outcomes for a fully cached
// batch, so callers see the same shape as a fresh render. Only cached
// batches with zero rejections reach this path. Dimensions are not
// persisted with artifacts, so reconstructed results carry zero
// Width/Height (see [Result]).
func outcomesFromArtifacts(artifacts []Artifact, n int, prefix string) []renderer.Outcome {
	outcomes := make([]renderer.Outcome, n)
	for i := range outcomes {
		outcomes[i] = renderer.Outcome{Result: &renderer.Result{ID: renderer.ContainerID(prefix, i)}}
	}
	for _, a := range artifacts {
		switch a.Format {
		case FormatSVG:
			outcomes[a.Index].Result.SVG = string(a.Data)
		case FormatPNG:
			outcomes[a.Index].Result.Screenshot = a.Data
		}
	}
	return outcomes
}
