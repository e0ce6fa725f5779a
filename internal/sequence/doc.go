// Package sequence groups file names that differ only by a frame number.
//
// Assemble splits an unordered list of names into frame sequences and the
// names that belong to none. The exporter normalizer relies on the split to
// decide how output files become representations.
package sequence
