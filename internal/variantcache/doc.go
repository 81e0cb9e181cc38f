// Package variantcache materializes planned image variants at most once
// and serves already-generated ones without re-encoding.
//
// Every variant maps to a deterministic cache file named
// <source-stem>.<content-token>.<ext> in the cache store, mirroring the
// source's relative directory. The content token is a pure function of the
// source identity, operation, width, format, and quality, so identical
// requests resolve to the same file across processes and restarts. Files
// are only ever created or deleted, never rewritten; atomic rename keeps
// partially written variants invisible to readers and to the garbage
// collector.
package variantcache
