// Package preflight provides readiness checks for the filesystem paths and
// host installation mochapipe depends on.
//
// These checks run in two contexts:
//   - The publish command calls RunAll first and refuses to start when a
//     required check fails, so a run never dies halfway through integration.
//   - The CLI "doctor" command prints every result, optional ones included.
//
// Host installation checks are optional: the built-in exporters work on the
// project file alone.
package preflight
