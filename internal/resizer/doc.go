// Package resizer decodes, proportionally resizes, and re-encodes bitmap
// images. It is the only package that touches pixel data; everything above
// it works with opaque byte slices and dimensions.
package resizer
