// Package host models the tracking application session: the project document
// with its notes, layers, views and clips, workfile open/save, installation
// path resolution and version parsing.
//
// The application itself is proprietary and only scriptable from inside its
// own process, so Project is a JSON document on disk that carries the same
// objects the pipeline reads and writes. Saves take an exclusive file lock
// and replace the file atomically.
package host
