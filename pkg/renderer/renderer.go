package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vennkit/vennkit/pkg/assets"
	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/observability"
)

// DefaultPrefix is the DOM-id prefix used when Options.Prefix is empty.
// Diagram containers get ids "{prefix}-0", "{prefix}-1", ...
const DefaultPrefix = "venn"

// ContainerID returns the DOM id assigned to the diagram at index.
func ContainerID(prefix string, index int) string {
	return fmt.Sprintf("%s-%d", prefix, index)
}

// Options configures a single render call.
type Options struct {
	// CSS is the URL of a stylesheet to inject into the page session.
	// It is used browser-side only; the renderer never fetches it.
	CSS string

	// Screenshot captures a PNG of each successfully laid-out diagram.
	// It also switches reported dimensions from logical viewBox units to
	// the rendered element's concrete pixel width/height.
	Screenshot bool

	// VennConfig is passed to the layout engine as-is. Keys name chart
	// accessors (width, height, padding, ...); unknown keys are ignored.
	VennConfig map[string]any

	// Prefix overrides DefaultPrefix for this call's DOM ids.
	Prefix string
}

func (o *Options) setDefaults() {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.VennConfig == nil {
		o.VennConfig = map[string]any{}
	}
}

// Result is a successfully rendered diagram.
type Result struct {
	// ID is the DOM id of the diagram's container ("{prefix}-{index}").
	ID string

	// SVG is the serialized SVG subtree produced by the layout engine.
	SVG string

	// Width and Height are viewBox units, or concrete pixels when the
	// call requested screenshots.
	Width  float64
	Height float64

	// Screenshot holds PNG bytes when Options.Screenshot was set.
	Screenshot []byte
}

// Outcome is the settled result for one diagram of a batch: exactly one of
// Result or Err is set. A batch yields one Outcome per input diagram, in
// input order, regardless of which diagrams failed.
type Outcome struct {
	Result *Result
	Err    error
}

// Fulfilled reports whether the diagram rendered successfully.
func (o Outcome) Fulfilled() bool { return o.Err == nil }

// Renderer renders batches of set-overlap diagrams in a shared headless
// browser. It is safe for concurrent use; concurrent Render calls share
// one browser instance and get isolated page sessions.
type Renderer struct {
	pool    *browserPool
	log     *log.Logger
	docURL  string
	library assets.Source
	d3      assets.Source
	fetcher *assets.Fetcher
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. Defaults to log.Default().
func WithLogger(l *log.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// WithBrowserBin sets the Chromium binary path. When empty, the rod
// launcher resolves (or downloads) a browser on its own.
func WithBrowserBin(bin string) Option {
	return func(r *Renderer) {
		r.pool = newBrowserPool(chromiumLaunch(bin, true), closeBrowser)
	}
}

// WithHeaded launches a visible (non-headless) browser. Debugging aid.
func WithHeaded() Option {
	return func(r *Renderer) {
		r.pool = newBrowserPool(chromiumLaunch("", false), closeBrowser)
	}
}

// WithDocumentURL overrides the minimal hosting document the page session
// navigates to. Defaults to about:blank.
func WithDocumentURL(u string) Option {
	return func(r *Renderer) {
		if u != "" {
			r.docURL = u
		}
	}
}

// WithLibrary overrides the source of the diagram layout library.
func WithLibrary(s assets.Source) Option {
	return func(r *Renderer) { r.library = s }
}

// WithD3 overrides the source of the layout library's d3 dependency.
func WithD3(s assets.Source) Option {
	return func(r *Renderer) { r.d3 = s }
}

// WithFetcher sets an asset fetcher used to resolve URL sources into
// inline script content before injection (vendored assets). Without a
// fetcher, URL sources are fetched by the browser itself.
func WithFetcher(f *assets.Fetcher) Option {
	return func(r *Renderer) { r.fetcher = f }
}

// withPool swaps the browser pool. Test seam.
func withPool(p *browserPool) Option {
	return func(r *Renderer) { r.pool = p }
}

// New creates a Renderer. The browser is not launched until the first
// Render call; construction never touches the system.
func New(opts ...Option) (*Renderer, error) {
	r := &Renderer{
		pool:    newBrowserPool(chromiumLaunch("", true), closeBrowser),
		log:     log.Default(),
		docURL:  "about:blank",
		library: assets.Venn(),
		d3:      assets.D3(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render lays out each diagram of the batch and returns one settled
// outcome per diagram, in input order.
//
// Diagram payloads are opaque: each element is marshaled to JSON and
// handed to the layout library unmodified. A per-diagram layout failure
// is reported in that diagram's outcome and never aborts siblings or the
// call. Only setup failures (browser launch, navigation, script or
// stylesheet injection) return a non-nil error, in which case no partial
// outcomes are produced.
func (r *Renderer) Render(ctx context.Context, diagrams []any, opts Options) ([]Outcome, error) {
	opts.setDefaults()
	if err := errors.ValidatePrefix(opts.Prefix); err != nil {
		return nil, err
	}

	// An empty (or nil) batch has nothing to settle and needs no browser.
	if len(diagrams) == 0 {
		return []Outcome{}, nil
	}

	browser, err := r.pool.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.pool.release()

	page, err := r.openPage(ctx, browser, opts.CSS)
	observability.Renderer().OnPageOpen(ctx, err)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = page.Close()
		observability.Renderer().OnPageClose(ctx)
	}()

	start := time.Now()
	observability.Renderer().OnBatchStart(ctx, len(diagrams))

	outcomes, err := runBatch(page, diagrams, opts)
	if err != nil {
		observability.Renderer().OnBatchComplete(ctx, len(diagrams), 0, time.Since(start), err)
		return nil, err
	}

	if opts.Screenshot {
		captureScreenshots(page, outcomes)
	}

	rejected := 0
	for _, o := range outcomes {
		if o.Err != nil {
			rejected++
		}
	}
	observability.Renderer().OnBatchComplete(ctx, len(diagrams), rejected, time.Since(start), nil)
	r.log.Debug("rendered batch",
		"diagrams", len(diagrams),
		"rejected", rejected,
		"duration", time.Since(start).Round(time.Millisecond))

	return outcomes, nil
}

// Close force-closes the shared browser. Call after all render calls have
// completed; in normal operation the browser already closes itself when
// the last concurrent call releases it.
func (r *Renderer) Close() error {
	return r.pool.shutdown()
}

