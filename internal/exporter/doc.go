// Package exporter lists the data exporters of the tracking application,
// translates their labels into representation names and runs them for a
// layer.
//
// An exporter is anything implementing Exporter: given a project, the layers
// to export, a destination path and the views, it returns the produced files
// keyed by path. The application exporters are reached through the same
// interface; the built-in ones operate on the project document so the
// pipeline works without the application running.
package exporter
