package renderer

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/observability"
)

// browserPool owns the shared browser handle used by all render calls on a
// Renderer. It launches the browser lazily on first acquire, coalesces
// concurrent launch requests into a single in-flight launch, counts active
// users, and closes the browser when the count returns to zero.
//
// The launch and close funcs are injectable so the pool's coordination
// logic is testable without a real Chrome binary.
type browserPool struct {
	launch func(context.Context) (*rod.Browser, error)
	close  func(*rod.Browser) error

	mu      sync.Mutex
	browser *rod.Browser
	refs    int
	pending *launchState
}

// launchState is the memoized in-flight launch: concurrent acquirers wait
// on done instead of starting duplicate launches, and a launch failure
// propagates to every waiter.
type launchState struct {
	done    chan struct{}
	browser *rod.Browser
	err     error
}

func newBrowserPool(launch func(context.Context) (*rod.Browser, error), close func(*rod.Browser) error) *browserPool {
	return &browserPool{launch: launch, close: close}
}

// acquire returns a ready browser handle, launching one only if none
// exists. Every successful acquire must be paired with a release.
func (p *browserPool) acquire(ctx context.Context) (*rod.Browser, error) {
	for {
		p.mu.Lock()
		if p.browser != nil {
			p.refs++
			b := p.browser
			p.mu.Unlock()
			return b, nil
		}

		if p.pending == nil {
			st := &launchState{done: make(chan struct{})}
			p.pending = st
			p.mu.Unlock()

			start := time.Now()
			b, err := p.launch(ctx)
			observability.Renderer().OnBrowserLaunch(ctx, time.Since(start), err)

			p.mu.Lock()
			st.browser, st.err = b, err
			// Clear the memoized launch either way: on failure a future
			// acquire can retry, on success the browser field takes over.
			p.pending = nil
			if err == nil {
				p.browser = b
				p.refs++
			}
			close(st.done)
			p.mu.Unlock()

			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeBrowserLaunch, err, "launch browser")
			}
			return b, nil
		}

		st := p.pending
		p.mu.Unlock()

		select {
		case <-st.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		if st.err != nil {
			return nil, errors.Wrap(errors.ErrCodeBrowserLaunch, st.err, "launch browser")
		}

		p.mu.Lock()
		if p.browser == st.browser && p.browser != nil {
			p.refs++
			b := p.browser
			p.mu.Unlock()
			return b, nil
		}
		// The launcher's own call already released down to zero and the
		// browser is gone again. Start over.
		p.mu.Unlock()
	}
}

// release drops one reference. When the count reaches zero the shared
// state is cleared immediately (so a subsequent acquire relaunches) and
// the browser is closed in the background; teardown is not awaited.
func (p *browserPool) release() {
	p.mu.Lock()
	if p.refs > 0 {
		p.refs--
	}
	if p.refs > 0 || p.browser == nil {
		p.mu.Unlock()
		return
	}
	b := p.browser
	p.browser = nil
	p.mu.Unlock()

	go func() {
		_ = p.close(b)
		observability.Renderer().OnBrowserClose(context.Background())
	}()
}

// shutdown force-closes the shared browser regardless of reference count.
// Intended for process teardown after all render calls have completed.
func (p *browserPool) shutdown() error {
	p.mu.Lock()
	b := p.browser
	p.browser = nil
	p.refs = 0
	p.mu.Unlock()

	if b == nil {
		return nil
	}
	return p.close(b)
}

// activeRefs reports the current reference count. Test helper.
func (p *browserPool) activeRefs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}

// chromiumLaunch builds the default launch func: start (or download) a
// Chromium via the rod launcher and connect over the DevTools protocol.
func chromiumLaunch(bin string, headless bool) func(context.Context) (*rod.Browser, error) {
	return func(ctx context.Context) (*rod.Browser, error) {
		l := launcher.New().Headless(headless).Leakless(true)
		if bin != "" {
			l = l.Bin(bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, err
		}

		// The browser outlives the call that launched it, so it must not
		// inherit that call's context; page sessions are bound per call.
		b := rod.New().ControlURL(u)
		if err := b.Connect(); err != nil {
			return nil, err
		}
		return b, nil
	}
}

func closeBrowser(b *rod.Browser) error {
	return b.Close()
}
