package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vennkit/vennkit/pkg/errors"
	vennio "github.com/vennkit/vennkit/pkg/io"
	"github.com/vennkit/vennkit/pkg/pipeline"
	"github.com/vennkit/vennkit/pkg/renderer"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string // output directory for artifacts
	base       string // artifact base name ({base}-{i}.svg)
	formats    []string
	screenshot bool
	css        string
	prefix     string
	vennConfig string // JSON object passed to the layout engine
	noCache    bool
	refresh    bool
}

// renderCommand creates the render command: batch file in, SVG/PNG
// artifacts out.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{
		output: ".",
		prefix: renderer.DefaultPrefix,
	}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a diagram batch file to SVG/PNG artifacts",
		Long: `Render reads a JSON batch file (an array of diagrams, each an array of
area descriptors) and renders every diagram in one browser pass. Each
fulfilled diagram produces "{base}-{index}.svg", plus a PNG when the png
format is requested. Rejected diagrams are reported individually and do
not abort their siblings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if opts.base == "" {
				opts.base = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output directory for artifacts")
	cmd.Flags().StringVar(&opts.base, "base", "", "artifact base name (default: batch file name)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png (comma-separated)")
	cmd.Flags().BoolVar(&opts.screenshot, "screenshot", false, "capture PNG screenshots (implied by png format)")
	cmd.Flags().StringVar(&opts.css, "css", "", "stylesheet URL injected into the page session")
	cmd.Flags().StringVar(&opts.prefix, "prefix", opts.prefix, "DOM id prefix for diagram containers")
	cmd.Flags().StringVar(&opts.vennConfig, "venn-config", "", "layout engine configuration as a JSON object")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even when artifacts are cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	batch, err := vennio.ImportBatch(path)
	if err != nil {
		return err
	}
	logger.Debug("imported batch", "file", path, "diagrams", len(batch))

	pipeOpts := pipeline.Options{
		CSS:        opts.css,
		Screenshot: opts.screenshot,
		Prefix:     opts.prefix,
		Formats:    opts.formats,
		Refresh:    opts.refresh,
	}
	if opts.vennConfig != "" {
		if err := json.Unmarshal([]byte(opts.vennConfig), &pipeOpts.VennConfig); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse --venn-config")
		}
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	runner, err := c.newRunner(cfg, opts.noCache)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %d diagrams...", len(batch)))
	spinner.Start()
	prog := newProgress(logger)

	result, err := runner.Execute(ctx, batch, pipeOpts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d diagrams", len(batch)))

	artifacts, err := vennio.ExportArtifacts(result.Outcomes, opts.output, opts.base)
	if err != nil {
		return err
	}

	printSuccess("Rendered %s", path)
	printStats(len(batch), result.Stats.Rejected, result.CacheInfo.FullHit)
	for _, a := range artifacts {
		printFile(a.Path)
	}
	for i, o := range result.Outcomes {
		if !o.Fulfilled() {
			printWarning("diagram %d: %s", i, errors.UserMessage(o.Err))
		}
	}
	if result.Stats.Rejected == len(batch) {
		return errors.New(errors.ErrCodeDiagramLayout, "all %d diagrams failed to render", len(batch))
	}
	return nil
}
