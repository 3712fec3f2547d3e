// Package diagram defines the typed input model for set-overlap diagrams.
//
// The renderer itself treats diagram payloads as opaque JSON handed to the
// browser-side layout library, so callers with exotic needs can bypass
// this package entirely. For everyone else, [Diagram] gives a validated,
// well-typed way to build batches:
//
//	d := diagram.Diagram{
//	    {Sets: []string{"A"}, Size: 12},
//	    {Sets: []string{"B"}, Size: 12},
//	    {Sets: []string{"A", "B"}, Size: 4, Label: "overlap"},
//	}
//	if err := d.Validate(); err != nil { ... }
//	outcomes, err := r.Render(ctx, diagram.Batch{d}.Payload(), opts)
package diagram

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/vennkit/vennkit/pkg/errors"
)

// Area is one region of a set-overlap diagram: a single set when Sets has
// one element, or the intersection of several sets otherwise. Size drives
// the layout algorithm's area computation.
type Area struct {
	Sets  []string `json:"sets"`
	Size  float64  `json:"size"`
	Label string   `json:"label,omitempty"`
}

// Diagram is one set-overlap diagram: a list of areas handed to the
// layout library as-is.
type Diagram []Area

// Validate checks the diagram is renderable: at least one area, every
// area naming at least one set with a positive size, and no duplicate
// set combinations.
func (d Diagram) Validate() error {
	if len(d) == 0 {
		return errors.New(errors.ErrCodeInvalidDiagram, "diagram has no areas")
	}

	seen := make(map[string]int, len(d))
	for i, a := range d {
		if len(a.Sets) == 0 {
			return errors.New(errors.ErrCodeInvalidDiagram, "area %d names no sets", i)
		}
		for _, s := range a.Sets {
			if s == "" {
				return errors.New(errors.ErrCodeInvalidDiagram, "area %d has an empty set name", i)
			}
		}
		if a.Size <= 0 {
			return errors.New(errors.ErrCodeInvalidDiagram, "area %d has non-positive size %v", i, a.Size)
		}

		key := a.key()
		if prev, dup := seen[key]; dup {
			return errors.New(errors.ErrCodeInvalidDiagram,
				"areas %d and %d describe the same set combination [%s]", prev, i, strings.Join(a.Sets, ", "))
		}
		seen[key] = i
	}
	return nil
}

// key canonicalizes the set combination so {A,B} and {B,A} collide.
func (a Area) key() string {
	sets := make([]string, len(a.Sets))
	copy(sets, a.Sets)
	sort.Strings(sets)
	return strings.Join(sets, "\x00")
}

// Batch is an ordered list of diagrams rendered in one call.
type Batch []Diagram

// Validate validates every diagram in the batch.
func (b Batch) Validate() error {
	for i, d := range b {
		if err := d.Validate(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidDiagram, err, "diagram %d", i)
		}
	}
	return nil
}

// Payload converts the batch into the opaque form the renderer accepts.
func (b Batch) Payload() []any {
	payload := make([]any, len(b))
	for i, d := range b {
		payload[i] = d
	}
	return payload
}

// Hash returns a stable content hash of the batch, suitable as a cache
// key component. Two batches with the same areas in the same order hash
// identically.
func (b Batch) Hash() (string, error) {
	data, err := json.Marshal(b)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash batch")
	}
	return hashBytes(data), nil
}
