// Package sources resolves logical image references into source images.
//
// A reference is looked up first in the managed media store and then in
// each configured static-assets store, mirroring how uploaded content and
// shipped assets live in different trees. References can also arrive as
// already-open byte streams; both forms resolve to the same Image value at
// this boundary so nothing downstream cares where the bytes came from.
package sources
