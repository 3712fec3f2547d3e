// Package cache provides pluggable caching for vendored scripts and
// rendered artifacts.
//
// Two kinds of data are cached:
//   - assets: downloaded copies of the layout library and its d3
//     dependency, so offline renders can inject vendored content;
//   - artifacts: rendered SVG/PNG outputs keyed by diagram content and
//     render options, so repeated pipeline runs skip the browser.
//
// Backends:
//   - FileCache: directory of hashed entry files, for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
//
// Keys are produced by a Keyer so all call sites agree on the key scheme;
// ScopedKeyer prefixes keys for namespace isolation.
package cache

import (
	"context"
	"time"
)

// TTLs per key kind. Assets change rarely (pinned versions); artifacts
// are cheap to regenerate but expensive enough to keep for a day.
const (
	TTLAsset    = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is the interface all backends implement.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key
	// was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys for the different data kinds.
type Keyer interface {
	// AssetKey keys a downloaded script by its URL.
	AssetKey(url string) string

	// ArtifactKey keys a rendered artifact by the batch content hash,
	// the artifact format, and the render options that shaped it.
	ArtifactKey(batchHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts captures every render option that affects artifact
// content; two renders differing in any field must not share a key.
type ArtifactKeyOpts struct {
	Format     string `json:"format"` // "svg" or "png"
	Index      int    `json:"index"`  // diagram index within the batch
	Prefix     string `json:"prefix"`
	Screenshot bool   `json:"screenshot"`
	CSS        string `json:"css,omitempty"`
	ConfigHash string `json:"config_hash,omitempty"` // hash of VennConfig
}

// DefaultKeyer is the standard key scheme.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// AssetKey generates a key for a downloaded script.
func (k *DefaultKeyer) AssetKey(url string) string {
	return hashKey("asset", url)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(batchHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", batchHash, opts)
}
