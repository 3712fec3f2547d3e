package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/vennkit/vennkit/pkg/assets"
	"github.com/vennkit/vennkit/pkg/buildinfo"
	"github.com/vennkit/vennkit/pkg/cache"
	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/renderer"
	"github.com/vennkit/vennkit/pkg/server"
)

// Config is the vennkit configuration file, TOML-encoded. Every field is
// optional; the zero config works out of the box with a system browser
// and CDN scripts.
//
// Example (~/.config/vennkit/config.toml):
//
//	[browser]
//	bin = "/usr/bin/chromium"
//
//	[assets]
//	vendor = true
//
//	[cache]
//	dir = "/var/cache/vennkit"
//
//	[server]
//	listen = "0.0.0.0:8410"
type Config struct {
	Browser BrowserConfig    `toml:"browser"`
	Assets  AssetsConfig     `toml:"assets"`
	Cache   CacheConfig      `toml:"cache"`
	Server  ServerTOMLConfig `toml:"server"`
}

// BrowserConfig selects the Chromium instance.
type BrowserConfig struct {
	// Bin is the browser binary path. Empty lets the launcher resolve
	// (or download) one.
	Bin string `toml:"bin"`

	// Headed launches a visible browser. Debugging aid.
	Headed bool `toml:"headed"`
}

// AssetsConfig overrides the browser-side script sources.
type AssetsConfig struct {
	VennURL  string `toml:"venn_url"`
	VennPath string `toml:"venn_path"`
	D3URL    string `toml:"d3_url"`
	D3Path   string `toml:"d3_path"`

	// Vendor resolves URL scripts through the cache-backed fetcher so
	// page sessions need no network access.
	Vendor bool `toml:"vendor"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	// Dir is the file cache directory. Empty uses ~/.cache/vennkit.
	Dir string `toml:"dir"`

	// Redis switches to a shared Redis cache when Addr is set.
	Redis RedisTOMLConfig `toml:"redis"`
}

// RedisTOMLConfig mirrors cache.RedisConfig for the config file.
type RedisTOMLConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServerTOMLConfig configures the serve command.
type ServerTOMLConfig struct {
	Listen         string `toml:"listen"`
	MaxBatchSize   int    `toml:"max_batch_size"`
	RequestTimeout string `toml:"request_timeout"` // Go duration string
}

// LoadConfig reads the config file at path, or the default location when
// path is empty. A missing default config is not an error; the zero
// config is returned.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return &cfg, nil
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", path)
	}
	return &cfg, nil
}

// defaultConfigPath returns the XDG config location
// (~/.config/vennkit/config.toml).
func defaultConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}

// NewCache builds the configured cache backend.
func (c *Config) NewCache() (cache.Cache, error) {
	if c.Cache.Redis.Addr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     c.Cache.Redis.Addr,
			Password: c.Cache.Redis.Password,
			DB:       c.Cache.Redis.DB,
		})
	}

	dir := c.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return nil, err
		}
	}
	return cache.NewFileCache(dir)
}

// NewRenderer builds a renderer from the config. The cache backs the
// asset fetcher when vendored injection is requested.
func (c *Config) NewRenderer(logger *log.Logger, store cache.Cache) (*renderer.Renderer, error) {
	opts := []renderer.Option{
		renderer.WithLogger(logger),
	}
	if c.Browser.Headed {
		opts = append(opts, renderer.WithHeaded())
	} else if c.Browser.Bin != "" {
		opts = append(opts, renderer.WithBrowserBin(c.Browser.Bin))
	}

	if src, ok := c.vennSource(); ok {
		opts = append(opts, renderer.WithLibrary(src))
	}
	if src, ok := c.d3Source(); ok {
		opts = append(opts, renderer.WithD3(src))
	}
	if c.Assets.Vendor {
		opts = append(opts, renderer.WithFetcher(assets.NewFetcher(store, nil, logger)))
	}

	return renderer.New(opts...)
}

func (c *Config) vennSource() (assets.Source, bool) {
	switch {
	case c.Assets.VennPath != "":
		return assets.Source{Path: c.Assets.VennPath}, true
	case c.Assets.VennURL != "":
		return assets.Source{URL: c.Assets.VennURL}, true
	default:
		return assets.Source{}, false
	}
}

func (c *Config) d3Source() (assets.Source, bool) {
	switch {
	case c.Assets.D3Path != "":
		return assets.Source{Path: c.Assets.D3Path}, true
	case c.Assets.D3URL != "":
		return assets.Source{URL: c.Assets.D3URL}, true
	default:
		return assets.Source{}, false
	}
}

// ServerConfig converts the TOML server section into the server package's
// config type.
func (c *Config) ServerConfig() (server.Config, error) {
	cfg := server.Config{
		BindAddress:  c.Server.Listen,
		MaxBatchSize: c.Server.MaxBatchSize,
		Version:      buildinfo.Version,
	}
	if c.Server.RequestTimeout != "" {
		d, err := time.ParseDuration(c.Server.RequestTimeout)
		if err != nil {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse request_timeout")
		}
		cfg.RequestTimeout = d
	}
	return cfg, nil
}
