// Package io provides JSON import for diagram batches and file export
// for rendered artifacts.
//
// # Batch Format
//
// A batch file is a JSON array of diagrams, each diagram an array of
// area descriptors:
//
//	[
//	  [
//	    {"sets": ["A"], "size": 12},
//	    {"sets": ["B"], "size": 12},
//	    {"sets": ["A", "B"], "size": 4, "label": "overlap"}
//	  ],
//	  [
//	    {"sets": ["X"], "size": 8},
//	    {"sets": ["Y"], "size": 8}
//	  ]
//	]
//
// A file containing a single diagram (an array of area objects rather
// than an array of arrays) is accepted as a one-diagram batch.
//
// # Export
//
// [ExportArtifacts] writes one file per fulfilled outcome, named
// "{base}-{index}.svg" (and "{base}-{index}.png" when screenshots were
// captured), so artifact names line up with the DOM ids the renderer
// assigns. Rejected outcomes produce no file; the caller decides how to
// report them.
package io
