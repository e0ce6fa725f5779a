// Package publish turns exporter output into representations the version
// registry can ingest.
//
// Each exporter run yields an unordered list of file names. The normalizer
// splits them into frame sequences and single files and applies a fixed
// policy: one sequence becomes a sequence representation, a single file a
// single-file representation, and several loose files a manifest
// representation whose files travel along as resource transfers. More than
// one sequence from the same exporter is rejected.
package publish
