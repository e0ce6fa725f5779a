// Package plugins holds the creators, loaders and publish plugins of the
// tracking host integration.
//
// Creators persist instances in the project notes through the metastore.
// Loaders bring published footage into the project and keep container
// records. The publish plugins collect the project and its instances,
// expand tracking and shape instances per layer, validate them, run the
// exporters, normalize their output into representations and register the
// result as a new version.
//
// Register wires everything into a pipeline.Registry.
package plugins
