package assets

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vennkit/vennkit/pkg/cache"
	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/httputil"
	"github.com/vennkit/vennkit/pkg/observability"
)

// Fetcher downloads script assets over HTTP with retry and keeps them in
// the cache, so URL sources resolve to inline content and later renders
// need no network access.
type Fetcher struct {
	client *http.Client
	cache  cache.Cache
	keyer  cache.Keyer
	log    *log.Logger
}

// NewFetcher creates a fetcher backed by the given cache. A nil cache
// disables caching (every Fetch hits the network); a nil client uses a
// default with a 30 second timeout.
func NewFetcher(c cache.Cache, client *http.Client, logger *log.Logger) *Fetcher {
	if c == nil {
		c = cache.NewNullCache()
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Fetcher{
		client: client,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		log:    logger,
	}
}

// Fetch returns the asset bytes for rawURL, from cache when possible.
// Network errors and 5xx/429 responses are retried with backoff; other
// HTTP error statuses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	key := f.keyer.AssetKey(rawURL)

	if data, hit, err := f.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "asset")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "asset")

	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		data, err := f.download(ctx, rawURL)
		if err != nil {
			return err
		}
		body = data
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetFetch, err, "fetch %s", rawURL)
	}

	if err := f.cache.Set(ctx, key, body, cache.TTLAsset); err == nil {
		observability.Cache().OnCacheSet(ctx, "asset", len(body))
	}
	f.log.Debug("fetched asset", "url", rawURL, "bytes", len(body))
	return body, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	host, path := hostPath(rawURL)
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		return nil, &httputil.RetryableError{Err: err}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &httputil.RetryableError{
			Err: errors.New(errors.ErrCodeNetwork, "%s returned %d", rawURL, resp.StatusCode),
		}
	default:
		return nil, errors.New(errors.ErrCodeNetwork, "%s returned %d", rawURL, resp.StatusCode)
	}
}

func hostPath(rawURL string) (string, string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, ""
	}
	return u.Host, u.Path
}
