// Package api assembles the full render pipeline behind one call: resolve
// a source reference, merge the size configuration, plan variant widths,
// materialize them through the cache, and format the srcset and sizes
// attribute strings.
//
// Failures split two ways. Configuration mistakes (unknown profile, bad
// size expression, missing source) surface as errors so callers see them
// during development. Generation trouble at render time degrades: the
// image falls back to its source URL and the page keeps working.
package api
