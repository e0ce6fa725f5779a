package testsupport

import (
	"path/filepath"
	"testing"

	"mochapipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.PublishRoot = filepath.Join(base, "publish")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.RegistryPath = filepath.Join(base, "registry", "registry.db")
	cfgVal.Paths.ResourceDir = filepath.Join(base, "resources")
	cfgVal.Host.Version = "2025"
	cfgVal.Host.Platform = "linux"
	cfgVal.Host.Executable = filepath.Join(base, "mocha", "bin", "mochapro")
	cfgVal.Session = config.Session{
		Project:    "demo",
		FolderPath: "/shots/sh010",
		Task:       "tracking",
		TaskType:   "Tracking",
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithHostVersion sets the host version used for exporter naming.
func WithHostVersion(version string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Host.Version = version
	}
}

// WithPlatform overrides the platform install paths are resolved for.
func WithPlatform(platform string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Host.Platform = platform
	}
}

// WithSession overrides the folder and task of the session.
func WithSession(folderPath, task string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Session.FolderPath = folderPath
		b.cfg.Session.Task = task
	}
}

// WithVerifiedCopies toggles checksum verification during integration.
func WithVerifiedCopies(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Publish.VerifyCopies = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
