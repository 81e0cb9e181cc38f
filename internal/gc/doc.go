// Package gc reconciles the variant cache tree against the current set of
// source images.
//
// A sweep walks the cache store depth-first, strips each file's content
// token to recover its source stem, and checks whether any file with that
// stem (any extension) still exists in the matching relative directory of
// a source store. Orphaned variants and their state-cache entries are
// deleted and directories left empty are pruned bottom-up. The sweep is
// batch work off the request path; a file lock keeps concurrent sweeps
// out, while renders may keep running because only fully materialized
// files are ever visible to the walk.
package gc
