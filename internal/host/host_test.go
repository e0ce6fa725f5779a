package host

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"mochapipe/internal/logging"
	"mochapipe/internal/services"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		raw   string
		major int
		minor int
		ok    bool
	}{
		{"2024", 2024, 0, true},
		{"2024.5", 2024, 5, true},
		{" 2025.0.1 ", 2025, 0, true},
		{"", 0, 0, false},
		{"pro", 0, 0, false},
		{"2024.x", 0, 0, false},
	}
	for _, tc := range tests {
		v, err := ParseVersion(tc.raw)
		if tc.ok != (err == nil) {
			t.Fatalf("ParseVersion(%q) err = %v", tc.raw, err)
		}
		if tc.ok && (v.Major != tc.major || v.Minor != tc.minor) {
			t.Fatalf("ParseVersion(%q) = %+v", tc.raw, v)
		}
	}
	if !LabelsCarryExtension("2024.5") || LabelsCarryExtension("2025") {
		t.Fatal("LabelsCarryExtension mismatch")
	}
	if MajorVersion("garbage") != 0 {
		t.Fatal("expected 0 for unparsable version")
	}
}

func TestResolveInstall(t *testing.T) {
	exe := filepath.Join("/opt", "mocha", "bin", "mochapro")
	tests := []struct {
		platform string
		python   string
		script   string
	}{
		{"windows", filepath.Join("/opt", "mocha", "python", "python.exe"), filepath.Join("/opt", "mocha", "python", "mochaexport.py")},
		{"darwin", filepath.Join("/opt", "mocha", "python3"), filepath.Join("/opt", "mocha", "mochaexport.py")},
		{"linux", filepath.Join("/opt", "mocha", "python", "bin", "python3"), filepath.Join("/opt", "mocha", "python", "mochaexport.py")},
	}
	for _, tc := range tests {
		inst, err := ResolveInstall(tc.platform, exe)
		if err != nil {
			t.Fatalf("%s: %v", tc.platform, err)
		}
		if inst.Python != tc.python || inst.ExporterScript != tc.script {
			t.Fatalf("%s: got %+v", tc.platform, inst)
		}
	}

	_, err := ResolveInstall("plan9", exe)
	if !errors.Is(err, ErrUnsupportedPlatform) || !errors.Is(err, services.ErrUnsupported) {
		t.Fatalf("expected unsupported platform error, got %v", err)
	}
	if _, err := ResolveInstall("linux", ""); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestProjectSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shots", "sh010_track_v001.mocha")

	project := NewProject(Clip{Path: "/plates/sh010.####.exr"})
	if _, err := project.AddLayer(Layer{Name: "screen", InPoint: 1001, OutPoint: 1010}); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	project.SetNotes("hello")
	if err := project.Save(); !errors.Is(err, ErrNotSaved) {
		t.Fatalf("expected ErrNotSaved, got %v", err)
	}
	if err := project.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if project.Dirty() {
		t.Fatal("project dirty after save")
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reopened.Notes() != "hello" {
		t.Fatalf("notes = %q", reopened.Notes())
	}
	layer, ok := reopened.Layer(0)
	if !ok || layer.Name != "screen" || layer.OutPoint != 1010 {
		t.Fatalf("layer = %+v", layer)
	}
	clip, ok := reopened.DefaultTrackableClip()
	if !ok || clip.Name != "sh010.####" {
		t.Fatalf("trackable clip = %+v", clip)
	}
}

func TestProjectSaveRespectsLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "locked.mocha")

	holder := flock.New(path + ".lock")
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer holder.Unlock()

	project := NewProject(Clip{Path: "/plates/a.exr"})
	if err := project.SaveAs(path); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestOpenMissingAndForeign(t *testing.T) {
	dir := t.TempDir()
	if _, err := Open(filepath.Join(dir, "nope.mocha")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	foreign := filepath.Join(dir, "foreign.mocha")
	if err := os.WriteFile(foreign, []byte(`{"format":"other"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(foreign); err == nil {
		t.Fatal("expected error for foreign file")
	}
}

func TestProjectClips(t *testing.T) {
	project := NewProject(Clip{Name: "plate", Path: "/a.exr"})
	if err := project.AddClip(Clip{Path: "/ref/witness.png"}); err != nil {
		t.Fatalf("AddClip: %v", err)
	}
	project.NewOutputClip(Clip{Name: "witness", Path: "/ref/witness.png"}, "witness")
	if err := project.Relink("witness", "/ref/witness_v2.png", 640, 480); err != nil {
		t.Fatalf("Relink: %v", err)
	}
	clip, ok := project.Clip("witness")
	if !ok || clip.Path != "/ref/witness_v2.png" || clip.Width != 640 {
		t.Fatalf("clip = %+v", clip)
	}
	if !project.RemoveClip("witness") {
		t.Fatal("RemoveClip returned false")
	}
	if len(project.OutputClips()) != 0 {
		t.Fatalf("output clip not removed: %+v", project.OutputClips())
	}
	if project.RemoveClip("witness") {
		t.Fatal("second RemoveClip returned true")
	}
	if err := project.Relink("witness", "/x", 0, 0); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWorkioSaveCreatesPlaceholderProject(t *testing.T) {
	dir := t.TempDir()
	placeholder := filepath.Join(dir, "resources", PlaceholderClipName)
	if err := os.MkdirAll(filepath.Dir(placeholder), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(placeholder, []byte("exr"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := NewWorkio(placeholder, logging.NewNop())
	if w.CurrentFile() != "" {
		t.Fatal("expected no current file")
	}
	if err := w.SaveFile(""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	target := filepath.Join(dir, "work", "sh010_v001.mocha")
	if err := w.SaveFile(target); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if w.CurrentFile() != target {
		t.Fatalf("CurrentFile = %q", w.CurrentFile())
	}
	if _, err := os.Stat(filepath.Join(dir, "work", PlaceholderClipName)); err != nil {
		t.Fatalf("placeholder clip not copied: %v", err)
	}
	if err := w.SaveFile(""); err != nil {
		t.Fatalf("SaveFile current: %v", err)
	}
	if got := w.FileExtensions(); len(got) != 1 || got[0] != ".mocha" {
		t.Fatalf("FileExtensions = %v", got)
	}

	other := NewWorkio(placeholder, logging.NewNop())
	project, err := other.OpenFile(target)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	clip, ok := project.DefaultTrackableClip()
	if !ok || !strings.HasSuffix(clip.Path, PlaceholderClipName) {
		t.Fatalf("trackable clip = %+v", clip)
	}
}

func TestProbeFrameSize(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "frame.png")
	f, err := os.Create(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 32))); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	w, h, err := ProbeFrameSize(pngPath, logging.NewNop())
	if err != nil || w != 64 || h != 32 {
		t.Fatalf("ProbeFrameSize png = %d %d %v", w, h, err)
	}

	exr := filepath.Join(dir, "frame.exr")
	if err := os.WriteFile(exr, []byte("not decodable"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	w, h, err = ProbeFrameSize(exr, logger)
	if err != nil || w != DefaultFrameWidth || h != DefaultFrameHeight {
		t.Fatalf("ProbeFrameSize exr = %d %d %v", w, h, err)
	}
	logged := buf.String()
	if !strings.Contains(logged, `"level":"WARN"`) || !strings.Contains(logged, `"event_type":"frame_size_default"`) || !strings.Contains(logged, exr) {
		t.Fatalf("expected fallback warning, got %s", logged)
	}
	if _, _, err := ProbeFrameSize(filepath.Join(dir, "missing.exr"), logging.NewNop()); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
