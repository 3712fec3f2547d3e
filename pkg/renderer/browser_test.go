package renderer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-rod/rod"

	apperrors "github.com/vennkit/vennkit/pkg/errors"
)

// fakeBrowser builds a pool whose launch/close funcs never touch a real
// Chrome. Each launch hands out a distinct *rod.Browser pointer so tests
// can tell instances apart.
type fakeBrowser struct {
	launches atomic.Int32
	closes   atomic.Int32
	closed   chan *rod.Browser

	mu        sync.Mutex
	launchErr error
	delay     time.Duration
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{closed: make(chan *rod.Browser, 16)}
}

func (f *fakeBrowser) pool() *browserPool {
	return newBrowserPool(
		func(ctx context.Context) (*rod.Browser, error) {
			f.launches.Add(1)
			f.mu.Lock()
			err, delay := f.launchErr, f.delay
			f.mu.Unlock()
			if delay > 0 {
				time.Sleep(delay)
			}
			if err != nil {
				return nil, err
			}
			return &rod.Browser{}, nil
		},
		func(b *rod.Browser) error {
			f.closes.Add(1)
			f.closed <- b
			return nil
		},
	)
}

func (f *fakeBrowser) setLaunchErr(err error) {
	f.mu.Lock()
	f.launchErr = err
	f.mu.Unlock()
}

func (f *fakeBrowser) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(2 * time.Second):
		t.Fatal("browser was not closed")
	}
}

func TestAcquireLaunchesOnce(t *testing.T) {
	fake := newFakeBrowser()
	fake.delay = 20 * time.Millisecond
	pool := fake.pool()

	const callers = 8
	browsers := make([]*rod.Browser, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := pool.acquire(context.Background())
			if err != nil {
				t.Errorf("acquire %d: %v", i, err)
				return
			}
			browsers[i] = b
		}(i)
	}
	wg.Wait()

	if got := fake.launches.Load(); got != 1 {
		t.Errorf("launches = %d, want 1 (concurrent acquires must coalesce)", got)
	}
	for i := 1; i < callers; i++ {
		if browsers[i] != browsers[0] {
			t.Fatalf("acquire %d returned a different browser", i)
		}
	}
	if got := pool.activeRefs(); got != callers {
		t.Errorf("refs = %d, want %d", got, callers)
	}

	// Browser stays open until the last release.
	for i := 0; i < callers-1; i++ {
		pool.release()
	}
	if got := fake.closes.Load(); got != 0 {
		t.Errorf("closes = %d before last release, want 0", got)
	}
	pool.release()
	fake.waitClosed(t)
}

func TestSequentialCallsRelaunch(t *testing.T) {
	fake := newFakeBrowser()
	pool := fake.pool()

	first, err := pool.acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	pool.release()
	fake.waitClosed(t)

	second, err := pool.acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer pool.release()

	if fake.launches.Load() != 2 {
		t.Errorf("launches = %d, want 2 (release to zero clears the handle)", fake.launches.Load())
	}
	if first == second {
		t.Error("relaunch should produce a fresh browser")
	}
}

func TestLaunchFailurePropagatesAndClears(t *testing.T) {
	fake := newFakeBrowser()
	fake.delay = 20 * time.Millisecond
	fake.setLaunchErr(errors.New("no chrome"))
	pool := fake.pool()

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pool.acquire(context.Background())
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			t.Fatalf("acquire %d should have failed", i)
		}
		if !apperrors.Is(err, apperrors.ErrCodeBrowserLaunch) {
			t.Errorf("acquire %d error code = %s", i, apperrors.GetCode(err))
		}
	}
	if got := fake.launches.Load(); got != 1 {
		t.Errorf("launches = %d, want 1 (failure shared by all waiters)", got)
	}

	// The memoized failure is cleared: the next acquire retries.
	fake.setLaunchErr(nil)
	if _, err := pool.acquire(context.Background()); err != nil {
		t.Fatalf("acquire after failure: %v", err)
	}
	defer pool.release()
	if got := fake.launches.Load(); got != 2 {
		t.Errorf("launches = %d, want 2", got)
	}
}

func TestAcquireHonorsContextWhileWaiting(t *testing.T) {
	fake := newFakeBrowser()
	fake.delay = 200 * time.Millisecond
	pool := fake.pool()

	// Leader holds the launch; the waiter's context expires first.
	go func() { _, _ = pool.acquire(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := pool.acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("waiter error = %v, want deadline exceeded", err)
	}
}

func TestShutdownForcesClose(t *testing.T) {
	fake := newFakeBrowser()
	pool := fake.pool()

	if _, err := pool.acquire(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := pool.shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if fake.closes.Load() != 1 {
		t.Errorf("closes = %d, want 1", fake.closes.Load())
	}
	if pool.activeRefs() != 0 {
		t.Errorf("refs = %d after shutdown, want 0", pool.activeRefs())
	}

	// Shutdown with no browser is a no-op.
	if err := pool.shutdown(); err != nil {
		t.Errorf("second shutdown: %v", err)
	}
}

func TestReleaseWithoutAcquireIsSafe(t *testing.T) {
	fake := newFakeBrowser()
	pool := fake.pool()

	pool.release() // must not panic or close anything
	if fake.closes.Load() != 0 {
		t.Error("release without acquire closed a browser")
	}
}
