package testsupport

import (
	"path/filepath"
	"testing"

	"mochapipe/internal/config"
	"mochapipe/internal/host"
	"mochapipe/internal/registry"
)

// MustOpenRegistry opens a registry.Store for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProject saves a project with the given layers under the config's base
// directory and returns it.
func NewProject(t testing.TB, cfg *config.Config, layers ...host.Layer) *host.Project {
	t.Helper()

	project := host.NewProject(host.Clip{Name: "plate", Path: filepath.Join(BaseDir(cfg), "plate.0001.png"), Width: 1920, Height: 1080})
	for _, layer := range layers {
		if _, err := project.AddLayer(layer); err != nil {
			t.Fatalf("AddLayer(%s): %v", layer.Name, err)
		}
	}
	if err := project.SaveAs(filepath.Join(BaseDir(cfg), "work", "shot_v001.mocha")); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return project
}

// Layer returns a layer spanning in..out with a corner key on the first
// frame and one shape.
func Layer(name string, in, out int) host.Layer {
	return host.Layer{
		Name:     name,
		InPoint:  in,
		OutPoint: out,
		Track: []host.CornerKey{{
			Frame: in,
			Corners: [4]host.Point{
				{X: 100, Y: 100}, {X: 200, Y: 100}, {X: 200, Y: 200}, {X: 100, Y: 200},
			},
		}},
		Shapes: []host.Shape{{
			Name:   "outline",
			Points: []host.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}},
		}},
	}
}
