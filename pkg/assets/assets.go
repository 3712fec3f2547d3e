// Package assets locates the browser-side scripts the renderer injects:
// the venn.js layout library and its d3 dependency.
//
// A [Source] names one script by URL, local file path, or raw content.
// Defaults point at pinned CDN builds, so a renderer works out of the box
// with the browser fetching scripts itself. For air-gapped or repeatable
// setups, a [Fetcher] downloads URL sources once (with retry) and keeps
// them in the cache, after which injection is fully offline.
package assets

import (
	"context"
	"fmt"
	"os"
)

// Pinned CDN builds. venn.js 0.2.20 is the last upstream release; it
// supports any d3 v4+ but is only exercised against v5 here.
const (
	DefaultVennURL = "https://cdn.jsdelivr.net/npm/venn.js@0.2.20/build/venn.min.js"
	DefaultD3URL   = "https://cdn.jsdelivr.net/npm/d3@5.16.0/dist/d3.min.js"
)

// Source names one injectable script. Exactly one field should be set;
// when several are set, Content wins over Path wins over URL.
type Source struct {
	// URL of the script. Fetched by the browser at injection time, or by
	// a Fetcher beforehand when vendored injection is requested.
	URL string

	// Path of a local script file, read at injection time.
	Path string

	// Content is raw script source, injected as-is.
	Content []byte
}

// Venn returns the default source of the layout library.
func Venn() Source {
	return Source{URL: DefaultVennURL}
}

// D3 returns the default source of the layout library's dependency.
func D3() Source {
	return Source{URL: DefaultD3URL}
}

// String identifies the source in logs and error messages.
func (s Source) String() string {
	switch {
	case len(s.Content) > 0:
		return fmt.Sprintf("inline (%d bytes)", len(s.Content))
	case s.Path != "":
		return s.Path
	case s.URL != "":
		return s.URL
	default:
		return "(empty source)"
	}
}

// IsZero reports whether no source is set.
func (s Source) IsZero() bool {
	return s.URL == "" && s.Path == "" && len(s.Content) == 0
}

// Resolve turns the source into injectable form: either a URL for the
// browser to fetch, or inline content (never both). URL sources resolve
// to content when a fetcher is available, so the page session needs no
// network access of its own.
func (s Source) Resolve(ctx context.Context, f *Fetcher) (url, content string, err error) {
	switch {
	case len(s.Content) > 0:
		return "", string(s.Content), nil
	case s.Path != "":
		data, err := os.ReadFile(s.Path)
		if err != nil {
			return "", "", err
		}
		return "", string(data), nil
	case s.URL != "":
		if f == nil {
			return s.URL, "", nil
		}
		data, err := f.Fetch(ctx, s.URL)
		if err != nil {
			return "", "", err
		}
		return "", string(data), nil
	default:
		return "", "", fmt.Errorf("empty script source")
	}
}
