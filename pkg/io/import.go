package io

import (
	"encoding/json"
	"io"
	"os"

	"github.com/vennkit/vennkit/pkg/diagram"
	"github.com/vennkit/vennkit/pkg/errors"
)

// ReadBatch decodes a diagram batch from r and validates it.
//
// The input is either an array of diagrams or a single diagram; the
// latter is wrapped into a one-diagram batch. ReadBatch does not close r.
func ReadBatch(r io.Reader) (diagram.Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read batch")
	}

	var batch diagram.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		// Maybe a single diagram rather than a batch of them.
		var d diagram.Diagram
		if derr := json.Unmarshal(data, &d); derr != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode batch")
		}
		batch = diagram.Batch{d}
	}

	if len(batch) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "batch contains no diagrams")
	}
	if err := batch.Validate(); err != nil {
		return nil, err
	}
	return batch, nil
}

// ImportBatch reads and validates a batch file at path.
func ImportBatch(path string) (diagram.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()

	batch, err := ReadBatch(f)
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "import %s", path)
	}
	return batch, nil
}
