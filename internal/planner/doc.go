// Package planner turns a resolved size spec and a source width into the
// minimal set of variant widths worth materializing plus the sizes-hint
// list a renderer needs.
//
// Planning is pure computation: no I/O, no suspension. The decimation step
// drops optional widths that land within the configured threshold of an
// already-selected width, trading a few pixels of fit precision for
// materially fewer cache entries. Explicit pixel widths are never dropped.
package planner
