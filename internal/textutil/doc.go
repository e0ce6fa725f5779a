// Package textutil builds product names and makes exporter labels and
// pipeline names safe to use as file and directory names.
//
// Product names follow the "<productType><Variant>" convention, with the
// variant of a per-layer product prefixed by the capitalized layer name.
// Sanitized file names keep spaces so manifests stay recognizable next to
// the exporter label that produced them ("Shape Point List.manifest").
package textutil
