package renderer

import (
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/vennkit/vennkit/pkg/errors"
)

// layoutScript runs inside the page session. It builds one layout engine
// instance for the batch, then lays out each diagram in order into its own
// container ("{prefix}-{i}"), settling every index independently: a throw
// during binding, layout, or serialization is caught at that index,
// reduced to a {name, message, stack} record, and never aborts siblings.
//
// Without screenshots the engine is told to normalize output into a
// viewBox so reported dimensions are logical units; with screenshots the
// rendered element's concrete pixel attributes are reported instead.
const layoutScript = `(diagrams, cfg) => {
	const chart = venn.VennDiagram();
	for (const [key, value] of Object.entries(cfg.vennConfig)) {
		if (typeof chart[key] === 'function') chart[key](value);
	}
	if (!cfg.screenshot && typeof chart.useViewBox === 'function') {
		chart.useViewBox();
	}
	const settled = [];
	for (let i = 0; i < diagrams.length; i++) {
		const id = cfg.prefix + '-' + i;
		try {
			const container = document.createElement('div');
			container.id = id;
			container.style.width = 'fit-content';
			container.style.height = 'fit-content';
			document.body.appendChild(container);
			d3.select('#' + id).datum(diagrams[i]).call(chart);
			const svg = container.querySelector('svg');
			if (!svg) {
				throw new Error('layout produced no svg element');
			}
			let width, height;
			if (cfg.screenshot) {
				width = Number(svg.getAttribute('width'));
				height = Number(svg.getAttribute('height'));
			} else {
				width = svg.viewBox.baseVal.width;
				height = svg.viewBox.baseVal.height;
			}
			settled.push({
				status: 'fulfilled',
				id: id,
				svg: new XMLSerializer().serializeToString(svg),
				width: width,
				height: height,
			});
		} catch (err) {
			settled.push({
				status: 'rejected',
				reason: {
					name: err && err.name ? String(err.name) : 'Error',
					message: err && err.message !== undefined ? String(err.message) : String(err),
					stack: err && err.stack ? String(err.stack) : '',
				},
			});
		}
	}
	return settled;
}`

// settledEntry mirrors one element of layoutScript's return value.
type settledEntry struct {
	Status string          `json:"status"`
	ID     string          `json:"id,omitempty"`
	SVG    string          `json:"svg,omitempty"`
	Width  float64         `json:"width,omitempty"`
	Height float64         `json:"height,omitempty"`
	Reason json.RawMessage `json:"reason,omitempty"`
}

// runBatch evaluates the layout script against the batch and decodes the
// settled entries into outcomes. A failure of the evaluation round-trip
// itself (not of an individual diagram) is a setup failure.
func runBatch(page *rod.Page, diagrams []any, opts Options) ([]Outcome, error) {
	cfg := map[string]any{
		"prefix":     opts.Prefix,
		"screenshot": opts.Screenshot,
		"vennConfig": opts.VennConfig,
	}

	res, err := page.Evaluate(&rod.EvalOptions{
		JS:           layoutScript,
		JSArgs:       []any{diagrams, cfg},
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePageSetup, err, "evaluate layout batch")
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read layout batch result")
	}

	return decodeSettled(raw, len(diagrams))
}

// decodeSettled turns the layout script's JSON return value into outcomes,
// rehydrating rejection reasons into error values.
func decodeSettled(raw []byte, want int) ([]Outcome, error) {
	var entries []settledEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode layout batch result")
	}
	if len(entries) != want {
		return nil, errors.New(errors.ErrCodeInternal,
			"layout batch returned %d entries for %d diagrams", len(entries), want)
	}

	outcomes := make([]Outcome, len(entries))
	for i, e := range entries {
		switch e.Status {
		case "fulfilled":
			outcomes[i] = Outcome{Result: &Result{
				ID:     e.ID,
				SVG:    e.SVG,
				Width:  e.Width,
				Height: e.Height,
			}}
		case "rejected":
			outcomes[i] = Outcome{Err: rehydrateReason(e.Reason)}
		default:
			outcomes[i] = Outcome{Err: errors.New(errors.ErrCodeInternal,
				"unknown settlement status %q at index %d", e.Status, i)}
		}
	}
	return outcomes, nil
}

// captureScreenshots attaches a PNG of each fulfilled diagram's rendered
// element. The page background is overridden to transparent for the pass.
// A capture failure demotes only that outcome to rejected; siblings keep
// their results.
func captureScreenshots(page *rod.Page, outcomes []Outcome) {
	alpha := 0.0
	transparent := &proto.DOMRGBA{R: 0, G: 0, B: 0, A: &alpha}
	if err := (proto.EmulationSetDefaultBackgroundColorOverride{Color: transparent}).Call(page); err == nil {
		defer func() {
			_ = (proto.EmulationSetDefaultBackgroundColorOverride{}).Call(page)
		}()
	}

	for i := range outcomes {
		if outcomes[i].Err != nil {
			continue
		}
		result := outcomes[i].Result
		data, err := captureElement(page, result.ID)
		if err != nil {
			outcomes[i] = Outcome{Err: errors.Wrap(errors.ErrCodeScreenshot, err,
				"capture screenshot of #%s", result.ID)}
			continue
		}
		result.Screenshot = data
	}
}

func captureElement(page *rod.Page, id string) ([]byte, error) {
	el, err := page.Element(fmt.Sprintf("#%s svg", id))
	if err != nil {
		return nil, err
	}
	return el.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
}
