// Package cli implements the vennkit command-line interface.
//
// This package provides commands for rendering set-overlap diagram
// batches to SVG/PNG, serving the rendering API over HTTP, prefetching
// the browser-side scripts, and managing the artifact cache. The CLI is
// built using cobra and supports verbose logging via the
// charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - render: Render a diagram batch file to SVG/PNG artifacts
//   - serve: Run the HTTP rendering API
//   - assets: Prefetch and vendor the layout scripts
//   - cache: Manage the artifact and asset cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context to allow structured progress
// tracking.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vennkit/vennkit/pkg/buildinfo"
	"github.com/vennkit/vennkit/pkg/cache"
	"github.com/vennkit/vennkit/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "vennkit"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands
// registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Vennkit renders area-proportional set-overlap diagrams",
		Long:         `Vennkit renders area-proportional Venn and Euler diagrams by driving the venn.js layout library inside a headless browser, producing SVG and PNG artifacts.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file (TOML)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.assetsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig loads the config file lazily, once per invocation.
func (c *CLI) loadConfig() (*Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(cfg *Config, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(cfg, noCache)
	if err != nil {
		return nil, err
	}
	r, err := cfg.NewRenderer(c.Logger, store)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, nil, r, c.Logger), nil
}

// newCache builds the cache backend the config selects: Redis when an
// address is configured, a file cache otherwise.
func (c *CLI) newCache(cfg *Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	store, err := cfg.NewCache()
	if err != nil {
		c.Logger.Warn("cache backend unavailable, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return store, nil
}

// cacheDir returns the cache directory using XDG standard
// (~/.cache/vennkit/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
