// Package main hosts the mochapipe CLI entrypoint and command graph.
//
// The Cobra command tree drives a file-backed tracking project through the
// pipeline: creating publish instances, loading footage, listing exporters,
// running a publish and inspecting the resulting versions. It centralizes
// configuration resolution, project locking and logger setup so subcommands
// only describe their own behavior.
//
// Keep this package lean: new functionality belongs in the internal packages
// first and is surfaced here through commands or flags.
package main
