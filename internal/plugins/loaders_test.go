package plugins_test

import (
	"errors"
	"path/filepath"
	"testing"

	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/plugins"
	"mochapipe/internal/services"
)

func TestClipLoaderLifecycle(t *testing.T) {
	f := newFixture(t)
	lc := f.loadContext()
	dir := t.TempDir()
	first := filepath.Join(dir, "bg.0001.png")
	writePNG(t, first, 64, 32)

	loader := plugins.ClipLoader{}
	container, err := loader.Load(lc, pipeline.LoadRequest{Path: first, Name: "bg", Namespace: "sh010", RepresentationID: "rep-1", Version: "v001"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if container.ID != metastore.ContainerID || container.Loader != plugins.LoadClipName || container.ObjectName != "bg" {
		t.Fatalf("container = %+v", container)
	}
	clip, ok := f.project.Clip("bg")
	if !ok || clip.Width != 64 || clip.Height != 32 {
		t.Fatalf("clip = %+v (found %v)", clip, ok)
	}
	if outputs := f.project.OutputClips(); len(outputs) != 1 || outputs[0].Name != "bg" {
		t.Fatalf("output clips = %+v", outputs)
	}

	second := filepath.Join(dir, "bg_v002.0001.png")
	writePNG(t, second, 128, 64)
	updated, err := loader.Update(lc, container, pipeline.LoadRequest{Path: second, RepresentationID: "rep-2", Version: "v002"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Representation != "rep-2" || updated.Version != "v002" {
		t.Fatalf("updated container = %+v", updated)
	}
	clip, _ = f.project.Clip("bg")
	if clip.Path != second || clip.Width != 64 {
		t.Fatalf("relinked clip = %+v", clip)
	}
	stored, err := f.store.Containers(f.project)
	if err != nil {
		t.Fatalf("Containers: %v", err)
	}
	if len(stored) != 1 || stored[0].Version != "v002" {
		t.Fatalf("stored containers = %+v", stored)
	}

	if err := loader.Remove(lc, updated); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := f.project.Clip("bg"); ok {
		t.Fatal("clip should be removed")
	}
	stored, err = f.store.Containers(f.project)
	if err != nil {
		t.Fatalf("Containers: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("containers after remove = %+v", stored)
	}
}

func TestClipLoaderRequiresFootage(t *testing.T) {
	f := newFixture(t)
	loader := plugins.ClipLoader{}
	if _, err := loader.Load(f.loadContext(), pipeline.LoadRequest{Path: filepath.Join(t.TempDir(), "missing.png")}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := loader.Load(f.loadContext(), pipeline.LoadRequest{}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTrackableClipLoaderKeepsOneContainer(t *testing.T) {
	f := newFixture(t)
	lc := f.loadContext()
	dir := t.TempDir()
	first := filepath.Join(dir, "plate_v001.png")
	second := filepath.Join(dir, "plate_v002.png")
	writePNG(t, first, 40, 20)
	writePNG(t, second, 80, 40)

	loader := plugins.TrackableClipLoader{}
	if _, err := loader.Load(lc, pipeline.LoadRequest{Path: first, Version: "v001"}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	container, err := loader.Load(lc, pipeline.LoadRequest{Path: second, Version: "v002"})
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if container.Name != "plate" || container.Version != "v002" {
		t.Fatalf("container = %+v", container)
	}
	stored, err := f.store.Containers(f.project)
	if err != nil {
		t.Fatalf("Containers: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one container, got %+v", stored)
	}
	clip, _ := f.project.DefaultTrackableClip()
	if clip.Path != second || clip.Width != 80 || clip.Height != 40 {
		t.Fatalf("trackable clip = %+v", clip)
	}
}

func TestTrackableClipLoaderNeedsTrackableClip(t *testing.T) {
	f := newFixture(t)
	f.project.RemoveClip("plate")
	path := filepath.Join(t.TempDir(), "plate.png")
	writePNG(t, path, 8, 8)

	_, err := plugins.TrackableClipLoader{}.Load(f.loadContext(), pipeline.LoadRequest{Path: path})
	if !errors.Is(err, plugins.ErrNoTrackableClip) {
		t.Fatalf("expected ErrNoTrackableClip, got %v", err)
	}
}

func TestRemoveWithMissingClipStillDropsContainer(t *testing.T) {
	f := newFixture(t)
	lc := f.loadContext()
	container := metastore.Container{Name: "gone", ID: metastore.ContainerID, ObjectName: "gone", Loader: plugins.LoadClipName}
	if err := f.store.AddContainer(f.project, container); err != nil {
		t.Fatalf("AddContainer: %v", err)
	}
	if err := (plugins.ClipLoader{}).Remove(lc, container); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	stored, err := f.store.Containers(f.project)
	if err != nil {
		t.Fatalf("Containers: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("containers = %+v", stored)
	}
}
