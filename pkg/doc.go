// Package pkg provides the core libraries for vennkit diagram rendering.
//
// # Overview
//
// Vennkit renders area-proportional set-overlap (Venn and Euler) diagrams
// by driving the venn.js layout library inside a headless browser. The
// pkg directory is organized into these areas:
//
//  1. [renderer] - Browser lifecycle, page sessions, batch layout
//  2. [diagram] - Typed diagram model and validation
//  3. [pipeline] - Orchestration with per-artifact caching
//  4. [assets] - Browser-side script sources (venn.js, d3)
//  5. [cache] - File, Redis, and null cache backends
//  6. [server] - HTTP rendering API
//  7. [io] - Batch import and artifact export
//
// # Architecture
//
// The typical data flow through vennkit:
//
//	Batch JSON file / HTTP request
//	         ↓
//	    [diagram] package (validate areas)
//	         ↓
//	    [pipeline] package (cache lookup, orchestration)
//	         ↓
//	    [renderer] package (shared browser, isolated page, venn.js)
//	         ↓
//	    SVG/PNG artifacts
package pkg
