package io

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vennkit/vennkit/pkg/errors"
	"github.com/vennkit/vennkit/pkg/renderer"
)

// Artifact describes one file written by ExportArtifacts.
type Artifact struct {
	Index int    // Position of the diagram in the batch
	Path  string // Path the file was written to
}

// ExportArtifacts writes rendered outcomes to dir, one SVG per fulfilled
// outcome named "{base}-{index}.svg", plus "{base}-{index}.png" when the
// outcome carries a screenshot. Rejected outcomes are skipped.
//
// The directory is created if missing. The returned list names every file
// written, in batch order.
func ExportArtifacts(outcomes []renderer.Outcome, dir, base string) ([]Artifact, error) {
	if err := errors.ValidateOutputPath(dir); err != nil {
		return nil, err
	}
	if base == "" {
		base = renderer.DefaultPrefix
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create output directory %s", dir)
	}

	var written []Artifact
	for i, o := range outcomes {
		if !o.Fulfilled() {
			continue
		}

		svgPath := filepath.Join(dir, fmt.Sprintf("%s-%d.svg", base, i))
		if err := os.WriteFile(svgPath, []byte(o.Result.SVG), 0o644); err != nil {
			return written, errors.Wrap(errors.ErrCodeInternal, err, "write %s", svgPath)
		}
		written = append(written, Artifact{Index: i, Path: svgPath})

		if len(o.Result.Screenshot) > 0 {
			pngPath := filepath.Join(dir, fmt.Sprintf("%s-%d.png", base, i))
			if err := os.WriteFile(pngPath, o.Result.Screenshot, 0o644); err != nil {
				return written, errors.Wrap(errors.ErrCodeInternal, err, "write %s", pngPath)
			}
			written = append(written, Artifact{Index: i, Path: pngPath})
		}
	}
	return written, nil
}
