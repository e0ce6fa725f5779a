// Package registry records published versions in a SQLite database and
// copies their files into the publish root.
//
// Every product is keyed by folder path and product name. Integrate allocates
// the next version number, copies representation files and transfers into
// <publish_root>/<folder>/<product>/v###/ and records the rows in a single
// transaction so a failed copy never leaves a half-registered version.
package registry
