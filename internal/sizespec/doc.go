// Package sizespec parses size expressions and merges per-call overrides
// with named profiles into the resolved configuration the planner consumes.
//
// A size expression is either a bare integer (viewport-width percent, vw)
// or an integer with an explicit px or vw suffix. Breakpoints are positive
// viewport pixel widths. Profiles live in the application config; per-call
// overrides arrive as a typed Overrides record plus an optional explicit
// breakpoint→size mapping that fully replaces the profile's breakpoints.
package sizespec
