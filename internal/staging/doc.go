// Package staging allocates per-instance staging directories and removes
// the ones left behind by old publish runs.
package staging
