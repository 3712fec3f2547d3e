package renderer

import (
	"context"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/errgroup"

	"github.com/vennkit/vennkit/pkg/assets"
	"github.com/vennkit/vennkit/pkg/errors"
)

// openPage creates the isolated page session for one render call: a fresh
// page with CSP bypass enabled, navigated to the minimal hosting document,
// with the layout library, its d3 dependency, and the optional stylesheet
// injected in parallel.
//
// Any failure here is a setup failure: the caller rejects the whole render
// call. The returned page is already bound to ctx; the caller owns closing
// it on every exit path.
func (r *Renderer) openPage(ctx context.Context, browser *rod.Browser, cssURL string) (*rod.Page, error) {
	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodePageSetup, err, "create page")
	}
	page = page.Context(ctx)

	ok := false
	defer func() {
		if !ok {
			_ = page.Close()
		}
	}()

	// Scripts are injected programmatically rather than declared by a
	// trusted document, so the page's content security policy must not
	// apply to them.
	if err := (proto.PageSetBypassCSP{Enabled: true}).Call(page); err != nil {
		return nil, errors.Wrap(errors.ErrCodePageSetup, err, "bypass CSP")
	}

	if err := page.Navigate(r.docURL); err != nil {
		return nil, errors.Wrap(errors.ErrCodePageSetup, err, "navigate to %s", r.docURL)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, errors.Wrap(errors.ErrCodePageSetup, err, "load %s", r.docURL)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.injectScript(gctx, page, r.d3) })
	g.Go(func() error { return r.injectScript(gctx, page, r.library) })
	if cssURL != "" {
		g.Go(func() error {
			if err := page.AddStyleTag(cssURL, ""); err != nil {
				return errors.Wrap(errors.ErrCodeScriptInject, err, "inject stylesheet %s", cssURL)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ok = true
	return page, nil
}

// injectScript adds one script source to the page. URL sources are either
// resolved to inline content through the renderer's fetcher (vendored
// mode) or fetched by the browser itself.
func (r *Renderer) injectScript(ctx context.Context, page *rod.Page, src assets.Source) error {
	url, content, err := src.Resolve(ctx, r.fetcher)
	if err != nil {
		return errors.Wrap(errors.ErrCodeScriptInject, err, "resolve script %s", src)
	}
	if err := page.AddScriptTag(url, content); err != nil {
		return errors.Wrap(errors.ErrCodeScriptInject, err, "inject script %s", src)
	}
	return nil
}
