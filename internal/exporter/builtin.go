package exporter

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"mochapipe/internal/host"
	"mochapipe/internal/textutil"
)

type builtinLabels struct {
	legacy string
	modern string
}

func (l builtinLabels) forVersion(version string) string {
	if host.LabelsCarryExtension(version) {
		return l.legacy
	}
	return l.modern
}

var (
	nukeAsciiLabels      = builtinLabels{legacy: "Nuke Ascii (*.txt)", modern: "Nuke Ascii"}
	cornerPinSeqLabels   = builtinLabels{legacy: "Per-frame Corner Pin (*.txt)", modern: "Per-frame Corner Pin"}
	shapePointListLabels = builtinLabels{legacy: "Shape Point List (*.txt)", modern: "Shape Point List"}
)

// RegisterBuiltins adds the exporters that work on the project document
// alone, labelled the way the given host version labels exporters.
func RegisterBuiltins(r *Registry, version string) error {
	builtins := []struct {
		kind   Kind
		labels builtinLabels
		exp    Exporter
	}{
		{KindTracking, nukeAsciiLabels, ExporterFunc(exportNukeAscii)},
		{KindTracking, cornerPinSeqLabels, ExporterFunc(exportCornerPinSequence)},
		{KindShape, shapePointListLabels, ExporterFunc(exportShapePoints)},
	}
	for _, b := range builtins {
		if err := r.Register(b.kind, b.labels.forVersion(version), b.exp); err != nil {
			return err
		}
	}
	return nil
}

// withExt returns dest with ext unless it already ends in it.
func withExt(dest, ext string) string {
	if filepath.Ext(dest) == ext {
		return dest
	}
	return dest + ext
}

// exportNukeAscii writes one line per frame: the frame number followed by the
// four corners of every layer.
func exportNukeAscii(ctx context.Context, project *host.Project, layers []host.Layer, dest string, views []host.View) (map[string][]byte, error) {
	if len(layers) == 0 || len(views) == 0 {
		return nil, nil
	}
	start, end := frameSpan(layers)
	width, height := frameSize(project)

	var buf bytes.Buffer
	for frame := start; frame <= end; frame++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%d", frame)
		for _, layer := range layers {
			for _, pt := range cornersAt(layer, frame, width, height) {
				fmt.Fprintf(&buf, " %.4f %.4f", pt.X, pt.Y)
			}
		}
		buf.WriteByte('\n')
	}
	return map[string][]byte{withExt(dest, ".txt"): buf.Bytes()}, nil
}

// exportCornerPinSequence writes one file per frame of the first layer.
func exportCornerPinSequence(ctx context.Context, project *host.Project, layers []host.Layer, dest string, views []host.View) (map[string][]byte, error) {
	if len(layers) == 0 || len(views) == 0 {
		return nil, nil
	}
	layer := layers[0]
	width, height := frameSize(project)
	base := strings.TrimSuffix(dest, ".txt")

	out := make(map[string][]byte, layer.OutPoint-layer.InPoint+1)
	for frame := layer.InPoint; frame <= layer.OutPoint; frame++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		fmt.Fprintf(&buf, "# layer %s frame %d\n", layer.Name, frame)
		for i, pt := range cornersAt(layer, frame, width, height) {
			fmt.Fprintf(&buf, "corner%d %.4f %.4f\n", i+1, pt.X, pt.Y)
		}
		out[fmt.Sprintf("%s.%04d.txt", base, frame)] = buf.Bytes()
	}
	return out, nil
}

// exportShapePoints writes one file per shape of every layer. A layer without
// shapes exports its frame outline.
func exportShapePoints(ctx context.Context, project *host.Project, layers []host.Layer, dest string, views []host.View) (map[string][]byte, error) {
	if len(layers) == 0 || len(views) == 0 {
		return nil, nil
	}
	width, height := frameSize(project)
	base := strings.TrimSuffix(dest, ".txt")

	out := make(map[string][]byte)
	for _, layer := range layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		shapes := layer.Shapes
		if len(shapes) == 0 {
			corners := cornersAt(layer, layer.InPoint, width, height)
			shapes = []host.Shape{{Name: layer.Name, Points: corners[:]}}
		}
		for _, shape := range shapes {
			var buf bytes.Buffer
			fmt.Fprintf(&buf, "# shape %s layer %s\n", shape.Name, layer.Name)
			for _, pt := range shape.Points {
				fmt.Fprintf(&buf, "%.4f %.4f\n", pt.X, pt.Y)
			}
			name := fmt.Sprintf("%s_%s.txt", base, textutil.SanitizeToken(shape.Name))
			out[name] = buf.Bytes()
		}
	}
	return out, nil
}

func frameSpan(layers []host.Layer) (int, int) {
	start, end := layers[0].InPoint, layers[0].OutPoint
	for _, layer := range layers[1:] {
		start = min(start, layer.InPoint)
		end = max(end, layer.OutPoint)
	}
	return start, end
}

func frameSize(project *host.Project) (float64, float64) {
	if clip, ok := project.DefaultTrackableClip(); ok && clip.Width > 0 && clip.Height > 0 {
		return float64(clip.Width), float64(clip.Height)
	}
	return host.DefaultFrameWidth, host.DefaultFrameHeight
}

// cornersAt returns the surface corners at frame: the last key at or before
// frame, the first key when frame precedes the track, or the full frame
// rectangle for untracked layers.
func cornersAt(layer host.Layer, frame int, width, height float64) [4]host.Point {
	if len(layer.Track) == 0 {
		return [4]host.Point{{X: 0, Y: 0}, {X: width, Y: 0}, {X: width, Y: height}, {X: 0, Y: height}}
	}
	best := layer.Track[0]
	for _, key := range layer.Track {
		if key.Frame <= frame && (key.Frame >= best.Frame || best.Frame > frame) {
			best = key
		}
	}
	return best.Corners
}
