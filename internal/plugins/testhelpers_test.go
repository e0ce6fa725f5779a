package plugins_test

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"mochapipe/internal/config"
	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/plugins"
	"mochapipe/internal/registry"
	"mochapipe/internal/testsupport"
)

type fixture struct {
	cfg       *config.Config
	project   *host.Project
	store     *metastore.Store
	exporters *exporter.Registry
	registry  *pipeline.Registry
	versions  *registry.Store
}

func newFixture(t *testing.T, layers ...host.Layer) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, testsupport.NewConfig(t), layers...)
}

func newFixtureWithConfig(t *testing.T, cfg *config.Config, layers ...host.Layer) *fixture {
	t.Helper()
	exporters := exporter.NewRegistry()
	if err := exporter.RegisterBuiltins(exporters, cfg.Host.Version); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	store := metastore.NewStore(logging.NewNop())
	reg := pipeline.NewRegistry()
	versions := testsupport.MustOpenRegistry(t, cfg)
	if err := plugins.Register(reg, plugins.Options{Config: cfg, Store: store, Versions: versions, Logger: logging.NewNop()}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return &fixture{
		cfg:       cfg,
		project:   testsupport.NewProject(t, cfg, layers...),
		store:     store,
		exporters: exporters,
		registry:  reg,
		versions:  versions,
	}
}

func (f *fixture) createContext() *pipeline.CreateContext {
	return plugins.NewCreateContext(f.cfg, f.project, f.store, f.exporters, logging.NewNop())
}

func (f *fixture) loadContext() *pipeline.LoadContext {
	return &pipeline.LoadContext{Project: f.project, Store: f.store, Logger: logging.NewNop()}
}

func (f *fixture) creator(t *testing.T, id string) pipeline.Creator {
	t.Helper()
	c, ok := f.registry.Creator(id)
	if !ok {
		t.Fatalf("creator %s not registered", id)
	}
	return c
}

func (f *fixture) exporterID(t *testing.T, kind exporter.Kind, label string) string {
	t.Helper()
	for _, info := range f.exporters.List(kind) {
		if info.Label == label {
			return info.ID
		}
	}
	t.Fatalf("exporter %q not registered", label)
	return ""
}

func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
}

func newRegistryFor(t *testing.T, cfg *config.Config) *pipeline.Registry {
	t.Helper()
	reg := pipeline.NewRegistry()
	if err := plugins.Register(reg, plugins.Options{Config: cfg, Logger: logging.NewNop()}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return reg
}
