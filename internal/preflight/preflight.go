package preflight

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"mochapipe/internal/config"
	"mochapipe/internal/services"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name" yaml:"name"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Detail   string `json:"detail" yaml:"detail"`
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	dirs := []struct {
		name string
		path string
	}{
		{"Staging directory", cfg.Paths.StagingDir},
		{"Publish root", cfg.Paths.PublishRoot},
		{"Registry directory", filepath.Dir(cfg.Paths.RegistryPath)},
		{"Log directory", cfg.Paths.LogDir},
	}
	var results []Result
	for _, dir := range dirs {
		if ctx.Err() != nil {
			return results
		}
		results = append(results, CheckDirectoryAccess(dir.name, dir.path))
	}

	results = append(results, CheckHostInstall(cfg)...)

	if clip := cfg.PlaceholderClip(); clip != "" {
		check := CheckFile("Placeholder clip", clip)
		check.Optional = true
		results = append(results, check)
	}
	return results
}

// Err joins the failed required checks, nil when all passed.
func Err(results []Result) error {
	var errs []error
	for _, r := range results {
		if !r.Passed && !r.Optional {
			errs = append(errs, fmt.Errorf("%w: %s: %s", services.ErrConfiguration, r.Name, r.Detail))
		}
	}
	return errors.Join(errs...)
}
