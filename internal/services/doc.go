// Package services defines the error taxonomy and context helpers shared by
// the publish plugins, loaders and the workfile layer.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures so the
//     publish runner can tell user-fixable problems from host failures.
//   - PublishError, the user-facing error carrying a markdown description and
//     a remediation hint.
//   - Context helpers that stamp instance names, plugin names and correlation
//     identifiers for logging.
package services
