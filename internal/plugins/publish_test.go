package plugins_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/plugins"
	"mochapipe/internal/registry"
	"mochapipe/internal/services"
	"mochapipe/internal/testsupport"
)

func screenLayer() host.Layer {
	layer := testsupport.Layer("screen", 1, 5)
	layer.Shapes = append(layer.Shapes, host.Shape{
		Name:   "hole",
		Points: []host.Point{{X: 2, Y: 2}, {X: 4, Y: 2}, {X: 4, Y: 4}},
	})
	return layer
}

func (f *fixture) publish(t *testing.T) *pipeline.Report {
	t.Helper()
	if err := f.project.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	report, err := pipeline.NewRunner(f.registry, logging.NewNop()).
		Publish(context.Background(), plugins.NewPublishContext(f.cfg, f.project, f.exporters))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	return report
}

func resultFor(t *testing.T, report *pipeline.Report, product string) pipeline.InstanceResult {
	t.Helper()
	for _, res := range report.Results {
		if res.ProductName == product {
			return res
		}
	}
	t.Fatalf("no result for %s in %+v", product, report.Results)
	return pipeline.InstanceResult{}
}

func latestVersion(t *testing.T, f *fixture, product string) registry.Version {
	t.Helper()
	versions, err := f.versions.Versions(context.Background(), registry.VersionFilter{ProductName: product})
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) == 0 {
		t.Fatalf("no versions of %s", product)
	}
	return versions[len(versions)-1]
}

func TestPublishIntegratesEveryProduct(t *testing.T) {
	f := newFixture(t, screenLayer())
	cc := f.createContext()
	if _, err := f.creator(t, plugins.TrackPointsCreatorID).Create(cc, "main", map[string]any{plugins.AttrLayers: []any{0}}); err != nil {
		t.Fatalf("create track points: %v", err)
	}
	shapeExporter := f.exporterID(t, exporter.KindShape, "Shape Point List")
	if _, err := f.creator(t, plugins.ShapeDataCreatorID).Create(cc, "main", map[string]any{
		plugins.AttrLayers:   []any{0},
		plugins.AttrExporter: []any{shapeExporter},
	}); err != nil {
		t.Fatalf("create shapes: %v", err)
	}
	if _, err := f.creator(t, plugins.WorkfileCreatorID).(pipeline.AutoCreator).AutoCreate(cc); err != nil {
		t.Fatalf("AutoCreate: %v", err)
	}

	report := f.publish(t)
	if report.Failed() != 0 {
		t.Fatalf("unexpected failures: %v", report.Err())
	}
	if report.Published() != 3 {
		t.Fatalf("published = %d, results = %+v", report.Published(), report.Results)
	}

	ctx := context.Background()

	track := latestVersion(t, f, "trackpointsScreenMain")
	if track.Number != 1 || track.SourceFile != f.project.Path() || track.Task != f.cfg.Session.Task {
		t.Fatalf("track version = %+v", track)
	}
	reps, err := f.versions.Representations(ctx, track.ID)
	if err != nil {
		t.Fatalf("Representations: %v", err)
	}
	if len(reps) != 1 || reps[0].Name != "NukeAscii" || reps[0].Ext != "txt" || reps[0].Sequence {
		t.Fatalf("track representations = %+v", reps)
	}
	if _, err := os.Stat(filepath.Join(track.Dir, reps[0].Files[0])); err != nil {
		t.Fatalf("track file not integrated: %v", err)
	}

	shapes := latestVersion(t, f, "matteshapesScreenMain")
	if want := f.versions.VersionDir(f.cfg.Session.FolderPath, "matteshapesScreenMain", 1); shapes.Dir != want {
		t.Fatalf("shape dir = %s, want %s", shapes.Dir, want)
	}
	reps, err = f.versions.Representations(ctx, shapes.ID)
	if err != nil {
		t.Fatalf("Representations: %v", err)
	}
	if len(reps) != 1 || reps[0].Name != "Shape Point List" || reps[0].Files[0] != "Shape Point List.manifest" {
		t.Fatalf("shape representations = %+v", reps)
	}
	manifest, err := os.ReadFile(filepath.Join(shapes.Dir, "Shape Point List.manifest"))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	listed := strings.Fields(string(manifest))
	if len(listed) != 2 {
		t.Fatalf("manifest lists %v", listed)
	}
	for _, name := range listed {
		if _, err := os.Stat(filepath.Join(shapes.Dir, name)); err != nil {
			t.Fatalf("resource %s not transferred: %v", name, err)
		}
	}
	transfers, err := f.versions.Transfers(ctx, shapes.ID)
	if err != nil {
		t.Fatalf("Transfers: %v", err)
	}
	var resources int
	for _, tr := range transfers {
		if tr.RepresentationID == 0 {
			resources++
		}
	}
	if resources != 2 {
		t.Fatalf("resource transfers = %d, all = %+v", resources, transfers)
	}

	workfile := latestVersion(t, f, "workfileMain")
	if _, err := os.Stat(filepath.Join(workfile.Dir, filepath.Base(f.project.Path()))); err != nil {
		t.Fatalf("workfile not integrated: %v", err)
	}

	second := f.publish(t)
	if res := resultFor(t, second, "trackpointsScreenMain"); res.Version != 2 {
		t.Fatalf("second publish version = %d", res.Version)
	}
}

func TestPublishIsolatesInstanceWithoutLayers(t *testing.T) {
	f := newFixture(t, screenLayer())
	cc := f.createContext()
	tracks := f.creator(t, plugins.TrackPointsCreatorID)
	if _, err := tracks.Create(cc, "empty", nil); err != nil {
		t.Fatalf("create empty: %v", err)
	}
	if _, err := tracks.Create(cc, "main", map[string]any{plugins.AttrLayers: []any{0}}); err != nil {
		t.Fatalf("create main: %v", err)
	}

	report := f.publish(t)
	failed := resultFor(t, report, "trackpointsEmpty")
	if failed.Status != pipeline.StatusFailed || failed.Outcome != services.OutcomeUserError {
		t.Fatalf("empty instance result = %+v", failed)
	}
	if !strings.Contains(failed.Error, "No layers set for instance") {
		t.Fatalf("error = %q", failed.Error)
	}
	if ok := resultFor(t, report, "trackpointsScreenMain"); ok.Status != pipeline.StatusPublished || ok.Version != 1 {
		t.Fatalf("main instance result = %+v", ok)
	}
	versions, err := f.versions.Versions(context.Background(), registry.VersionFilter{ProductName: "trackpointsEmpty"})
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if len(versions) != 0 {
		t.Fatalf("failed instance was integrated: %+v", versions)
	}
}

func TestPublishAllLayersMode(t *testing.T) {
	f := newFixture(t, testsupport.Layer("screen", 1, 3), testsupport.Layer("wall", 2, 4))
	if _, err := f.creator(t, plugins.TrackPointsCreatorID).Create(f.createContext(), "main", map[string]any{
		plugins.AttrLayerMode: plugins.LayerModeAll,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	report := f.publish(t)
	if report.Published() != 2 || report.Failed() != 0 {
		t.Fatalf("results = %+v", report.Results)
	}
	for _, product := range []string{"trackpointsScreenMain", "trackpointsWallMain"} {
		if res := resultFor(t, report, product); res.Representations != 1 {
			t.Fatalf("%s representations = %d", product, res.Representations)
		}
	}
}

func TestPublishSkipsInactiveInstances(t *testing.T) {
	f := newFixture(t, screenLayer())
	cc := f.createContext()
	tracks := f.creator(t, plugins.TrackPointsCreatorID)
	inst, err := tracks.Create(cc, "main", map[string]any{plugins.AttrLayers: []any{0}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	inactive := false
	inst.Active = &inactive
	if err := tracks.Update(cc, []metastore.Instance{inst}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	report := f.publish(t)
	if report.Published() != 0 {
		t.Fatalf("inactive instance published: %+v", report.Results)
	}
	if res := resultFor(t, report, "trackpointsMain"); res.Status != pipeline.StatusSkipped {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestPublishAbortsOnUnsupportedPlatform(t *testing.T) {
	f := newFixtureWithConfig(t, testsupport.NewConfig(t, testsupport.WithPlatform("plan9")), screenLayer())
	if _, err := f.creator(t, plugins.TrackPointsCreatorID).Create(f.createContext(), "main", map[string]any{plugins.AttrLayers: []any{0}}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := f.project.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	report, err := pipeline.NewRunner(f.registry, logging.NewNop()).
		Publish(context.Background(), plugins.NewPublishContext(f.cfg, f.project, f.exporters))
	if !errors.Is(err, services.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if report.Published() != 0 || report.Failed() != 1 {
		t.Fatalf("results = %+v", report.Results)
	}
}

func TestPublishRejectsDuplicateProducts(t *testing.T) {
	tests := []struct {
		name   string
		layers []host.Layer
		create func(t *testing.T, f *fixture)
	}{
		{
			name:   "same variant twice",
			layers: []host.Layer{screenLayer()},
			create: func(t *testing.T, f *fixture) {
				tracks := f.creator(t, plugins.TrackPointsCreatorID)
				for range 2 {
					if _, err := tracks.Create(f.createContext(), "main", map[string]any{plugins.AttrLayers: []any{0}}); err != nil {
						t.Fatalf("Create: %v", err)
					}
				}
			},
		},
		{
			name:   "layers sharing a name",
			layers: []host.Layer{testsupport.Layer("screen", 1, 3), testsupport.Layer("screen", 2, 4)},
			create: func(t *testing.T, f *fixture) {
				if _, err := f.creator(t, plugins.TrackPointsCreatorID).Create(f.createContext(), "main", map[string]any{
					plugins.AttrLayerMode: plugins.LayerModeAll,
				}); err != nil {
					t.Fatalf("Create: %v", err)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t, tc.layers...)
			tc.create(t, f)

			report := f.publish(t)
			var clashing int
			for _, res := range report.Results {
				if res.ProductName != "trackpointsScreenMain" {
					continue
				}
				clashing++
				if res.Status != pipeline.StatusFailed || res.Outcome != services.OutcomeUserError {
					t.Fatalf("result = %+v", res)
				}
				if res.Plugin != "ValidateProductUniqueness" || !strings.Contains(res.Error, "trackpointsScreenMain is published by more than one instance") {
					t.Fatalf("failed in %s with %q", res.Plugin, res.Error)
				}
			}
			if clashing != 2 {
				t.Fatalf("expected 2 clashing results, got %+v", report.Results)
			}
			versions, err := f.versions.Versions(context.Background(), registry.VersionFilter{ProductName: "trackpointsScreenMain"})
			if err != nil {
				t.Fatalf("Versions: %v", err)
			}
			if len(versions) != 0 {
				t.Fatalf("clashing product was integrated: %+v", versions)
			}
		})
	}
}
