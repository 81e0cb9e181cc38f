// Command srcset renders responsive image attributes, inspects the variant
// cache, and garbage-collects orphaned variants.
package main
