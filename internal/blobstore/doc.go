// Package blobstore abstracts byte storage for source images and generated
// variants.
//
// The filesystem implementation materializes files atomically: bytes land
// in a uniquely named temp file that is renamed into place, so readers and
// the garbage collector only ever observe fully written files. Paths are
// always relative to the store root and use forward slashes.
package blobstore
