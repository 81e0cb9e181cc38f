// Package statecache tracks which variant files exist so the coordinator
// can skip blob-store stat calls and the garbage collector can drop records for
// deleted variants.
//
// Keys are derived purely from the variant file name, which keeps them
// computable by both the coordinator (at write time) and the garbage
// collector (at sweep time, from the file alone). Two backends are
// provided: an embedded SQLite database and a shared Redis instance for
// deployments where several processes render against one blob store.
package statecache
