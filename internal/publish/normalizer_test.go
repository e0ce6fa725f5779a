package publish

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"mochapipe/internal/exporter"
	"mochapipe/internal/logging"
	"mochapipe/internal/services"
)

func newOutput(t *testing.T, label string, files ...string) exporter.Output {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return exporter.Output{
		Name:       label,
		Ext:        "txt",
		Files:      files,
		StagingDir: dir,
		OutputName: exporter.ID(label)[:exporter.ShortIDLength],
		Kind:       exporter.KindTracking,
	}
}

func TestNormalizeSequence(t *testing.T) {
	publishDir := t.TempDir()
	n := NewNormalizer("2024.5", publishDir, logging.NewNop())
	output := newOutput(t, "Nuke Ascii (*.txt)", "shot.0002.txt", "shot.0001.txt", "shot.0003.txt")

	result, err := n.Normalize(output)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Representations) != 1 || len(result.Transfers) != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
	rep := result.Representations[0]
	if !rep.Sequence || !slices.Equal(rep.Files, []string{"shot.0001.txt", "shot.0002.txt", "shot.0003.txt"}) {
		t.Fatalf("sequence files = %v", rep.Files)
	}
	if rep.Name != "NukeAscii" || rep.OutputName != output.OutputName || rep.StagingDir != output.StagingDir {
		t.Fatalf("unexpected representation %+v", rep)
	}
}

func TestNormalizeSingleFile(t *testing.T) {
	n := NewNormalizer("2024.5", t.TempDir(), logging.NewNop())
	result, err := n.Normalize(newOutput(t, "Nuke Ascii (*.txt)", "shot_data.txt"))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Representations) != 1 {
		t.Fatalf("expected one representation, got %d", len(result.Representations))
	}
	data, err := json.Marshal(result.Representations[0])
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["files"] != "shot_data.txt" {
		t.Fatalf("files = %#v, want plain string", decoded["files"])
	}
}

func TestNormalizeManyRemainders(t *testing.T) {
	publishDir := t.TempDir()
	n := NewNormalizer("2024.5", publishDir, logging.NewNop())
	output := newOutput(t, "Shape Point List (*.txt)", "a.txt", "b.txt", "c.txt")

	result, err := n.Normalize(output)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Representations) != 1 {
		t.Fatalf("expected one representation, got %d", len(result.Representations))
	}
	rep := result.Representations[0]
	wantManifest := "Shape Point List (-.txt).manifest"
	if !slices.Equal(rep.Files, []string{wantManifest}) {
		t.Fatalf("files = %v", rep.Files)
	}
	content, err := os.ReadFile(filepath.Join(output.StagingDir, wantManifest))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if string(content) != "a.txt\nb.txt\nc.txt\n" {
		t.Fatalf("manifest = %q", content)
	}
	if len(result.Transfers) != 3 {
		t.Fatalf("expected 3 transfers, got %d", len(result.Transfers))
	}
	for i, name := range []string{"a.txt", "b.txt", "c.txt"} {
		tr := result.Transfers[i]
		if tr.Source != filepath.Join(output.StagingDir, name) || tr.Destination != filepath.Join(publishDir, name) {
			t.Fatalf("transfer %d = %+v", i, tr)
		}
	}
}

func TestNormalizeSequenceWithRemainders(t *testing.T) {
	publishDir := t.TempDir()
	n := NewNormalizer("2024.5", publishDir, logging.NewNop())
	output := newOutput(t, "Nuke Ascii (*.txt)", "notes.txt", "pin.1001.txt", "pin.1002.txt", "readme.md")

	result, err := n.Normalize(output)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Representations) != 1 || !result.Representations[0].Sequence {
		t.Fatalf("unexpected representations %+v", result.Representations)
	}
	if len(result.Transfers) != 2 {
		t.Fatalf("transfers = %+v", result.Transfers)
	}
	for _, tr := range result.Transfers {
		if filepath.Dir(tr.Destination) != publishDir {
			t.Fatalf("transfer outside publish dir: %+v", tr)
		}
	}
}

func TestNormalizeRejectsMultipleSequences(t *testing.T) {
	n := NewNormalizer("2024.5", t.TempDir(), logging.NewNop())
	output := newOutput(t, "Nuke Ascii (*.txt)", "shotA.0001.txt", "shotA.0002.txt", "shotB.0001.txt", "shotB.0002.txt")

	result, err := n.Normalize(output)
	if !errors.Is(err, ErrMultipleSequences) || !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrMultipleSequences, got %v", err)
	}
	if len(result.Representations) != 0 {
		t.Fatalf("no representation expected, got %+v", result.Representations)
	}
	if services.DescribeError(err) == "" {
		t.Fatal("expected a description on the publish error")
	}
}

func TestNormalizeEmptyOutput(t *testing.T) {
	n := NewNormalizer("2024.5", t.TempDir(), logging.NewNop())
	result, err := n.Normalize(exporter.Output{Name: "Nuke Ascii (*.txt)", Kind: exporter.KindTracking})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(result.Representations) != 0 || len(result.Transfers) != 0 {
		t.Fatalf("expected empty result, got %+v", result)
	}
}

func TestNormalizeUnmappedLabelKeepsName(t *testing.T) {
	n := NewNormalizer("2025", t.TempDir(), logging.NewNop())
	output := newOutput(t, "Some Future Exporter", "data.txt")
	result, err := n.Normalize(output)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := result.Representations[0].Name; got != "Some Future Exporter" {
		t.Fatalf("name = %q", got)
	}
}

func TestNormalizeNeedsPublishDirForTransfers(t *testing.T) {
	n := NewNormalizer("2024.5", "", logging.NewNop())
	_, err := n.Normalize(newOutput(t, "x", "a.txt", "b.txt"))
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNormalizeAll(t *testing.T) {
	n := NewNormalizer("2024.5", t.TempDir(), logging.NewNop())
	result, err := n.NormalizeAll([]exporter.Output{
		newOutput(t, "Nuke Ascii (*.txt)", "a.txt"),
		newOutput(t, "Per-frame Corner Pin (*.txt)", "p.0001.txt", "p.0002.txt"),
	})
	if err != nil {
		t.Fatalf("NormalizeAll: %v", err)
	}
	if len(result.Representations) != 2 {
		t.Fatalf("expected 2 representations, got %d", len(result.Representations))
	}
}

func TestRepresentationJSONRoundTrip(t *testing.T) {
	seq := Representation{Name: "n", Ext: "txt", Files: []string{"a.1.txt", "a.2.txt"}, Sequence: true, StagingDir: "/s"}
	data, err := json.Marshal(seq)
	if err != nil {
		t.Fatal(err)
	}
	var back Representation
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Sequence || !slices.Equal(back.Files, seq.Files) {
		t.Fatalf("round trip = %+v", back)
	}
	single := Representation{Name: "n", Files: []string{"a.txt"}}
	data, _ = json.Marshal(single)
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Sequence || !slices.Equal(back.Files, []string{"a.txt"}) {
		t.Fatalf("single round trip = %+v", back)
	}
	if got := seq.Paths(); got[0] != filepath.Join("/s", "a.1.txt") {
		t.Fatalf("Paths = %v", got)
	}
}
