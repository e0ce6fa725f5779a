package host

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"

	"mochapipe/internal/fileutil"
	"mochapipe/internal/services"
)

const (
	projectFormat        = "mochapipe-project"
	projectSchemaVersion = 1
)

// ErrNotSaved is returned by Save for a project that has never been written.
var ErrNotSaved = errors.New("project has not been saved yet")

// ErrLocked is returned when another process holds the project lock.
var ErrLocked = errors.New("project is locked by another process")

// Point is a position in clip pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CornerKey is the planar surface of a layer at one frame, corners ordered
// bottom-left, bottom-right, top-right, top-left.
type CornerKey struct {
	Frame   int      `json:"frame"`
	Corners [4]Point `json:"corners"`
}

// Shape is a closed spline drawn on a layer.
type Shape struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// Layer is a tracked layer.
type Layer struct {
	Name     string      `json:"name"`
	InPoint  int         `json:"in_point"`
	OutPoint int         `json:"out_point"`
	Track    []CornerKey `json:"track,omitempty"`
	Shapes   []Shape     `json:"shapes,omitempty"`
}

// View is a stereo or multi-view eye.
type View struct {
	Name string `json:"name"`
	Abbr string `json:"abbr"`
}

// Clip is footage referenced by the project.
type Clip struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type projectFile struct {
	Format               string  `json:"format"`
	Version              int     `json:"version"`
	Notes                string  `json:"notes"`
	FrameRate            float64 `json:"frame_rate,omitempty"`
	Views                []View  `json:"views"`
	Clips                []Clip  `json:"clips"`
	OutputClips          []Clip  `json:"output_clips,omitempty"`
	DefaultTrackableClip string  `json:"default_trackable_clip,omitempty"`
	Layers               []Layer `json:"layers"`
}

// Project is an open project document. It is not safe for concurrent use.
type Project struct {
	path  string
	data  projectFile
	dirty bool
}

// NewProject returns an unsaved project whose trackable clip is clip.
func NewProject(clip Clip) *Project {
	if clip.Name == "" {
		clip.Name = clipNameFromPath(clip.Path)
	}
	return &Project{
		data: projectFile{
			Format:               projectFormat,
			Version:              projectSchemaVersion,
			Views:                []View{{Name: "Mono", Abbr: "M"}},
			Clips:                []Clip{clip},
			DefaultTrackableClip: clip.Name,
		},
		dirty: true,
	}
}

// Open reads the project at path.
func Open(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: project %s", services.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	var file projectFile
	decoder := json.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}
	if file.Format != projectFormat {
		return nil, fmt.Errorf("%s is not a %s file", path, projectFormat)
	}
	if file.Version > projectSchemaVersion {
		return nil, fmt.Errorf("project %s uses format version %d, newer than supported %d", path, file.Version, projectSchemaVersion)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Project{path: abs, data: file}, nil
}

// Path returns the project file, empty for unsaved projects.
func (p *Project) Path() string { return p.path }

// Dirty reports whether the project changed since it was opened or saved.
func (p *Project) Dirty() bool { return p.dirty }

// Notes returns the free-text project notes.
func (p *Project) Notes() string { return p.data.Notes }

// SetNotes replaces the project notes.
func (p *Project) SetNotes(notes string) {
	if notes == p.data.Notes {
		return
	}
	p.data.Notes = notes
	p.dirty = true
}

// Save writes the project back to its file.
func (p *Project) Save() error {
	if p.path == "" {
		return ErrNotSaved
	}
	return p.write(p.path)
}

// SaveAs writes the project to path and makes path its file.
func (p *Project) SaveAs(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve project path: %w", err)
	}
	if err := p.write(abs); err != nil {
		return err
	}
	p.path = abs
	return nil
}

func (p *Project) write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create project dir: %w", err)
	}
	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire project lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() {
		_ = lock.Unlock()
	}()

	p.data.Format = projectFormat
	p.data.Version = projectSchemaVersion
	payload, err := json.MarshalIndent(p.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	p.dirty = false
	return nil
}

// Layers returns a copy of the project layers.
func (p *Project) Layers() []Layer {
	return slices.Clone(p.data.Layers)
}

// Layer returns the layer at idx.
func (p *Project) Layer(idx int) (Layer, bool) {
	if idx < 0 || idx >= len(p.data.Layers) {
		return Layer{}, false
	}
	return p.data.Layers[idx], true
}

// AddLayer appends layer and returns its index.
func (p *Project) AddLayer(layer Layer) (int, error) {
	layer.Name = strings.TrimSpace(layer.Name)
	if layer.Name == "" {
		return 0, fmt.Errorf("%w: layer name is required", services.ErrValidation)
	}
	if layer.OutPoint < layer.InPoint {
		return 0, fmt.Errorf("%w: layer %q out point %d before in point %d", services.ErrValidation, layer.Name, layer.OutPoint, layer.InPoint)
	}
	p.data.Layers = append(p.data.Layers, layer)
	p.dirty = true
	return len(p.data.Layers) - 1, nil
}

// Views returns the project views.
func (p *Project) Views() []View {
	return slices.Clone(p.data.Views)
}

// Clips returns the input clips.
func (p *Project) Clips() []Clip {
	return slices.Clone(p.data.Clips)
}

// OutputClips returns the output clips.
func (p *Project) OutputClips() []Clip {
	return slices.Clone(p.data.OutputClips)
}

// Clip returns the input clip called name.
func (p *Project) Clip(name string) (Clip, bool) {
	idx := p.clipIndex(name)
	if idx < 0 {
		return Clip{}, false
	}
	return p.data.Clips[idx], true
}

// AddClip adds clip, replacing an input clip of the same name.
func (p *Project) AddClip(clip Clip) error {
	if clip.Name == "" {
		clip.Name = clipNameFromPath(clip.Path)
	}
	if clip.Name == "" {
		return fmt.Errorf("%w: clip needs a name or path", services.ErrValidation)
	}
	if idx := p.clipIndex(clip.Name); idx >= 0 {
		p.data.Clips[idx] = clip
	} else {
		p.data.Clips = append(p.data.Clips, clip)
	}
	p.dirty = true
	return nil
}

// NewOutputClip registers an output clip rendering from the input clip.
func (p *Project) NewOutputClip(source Clip, name string) {
	out := Clip{Name: name, Path: source.Path, Width: source.Width, Height: source.Height}
	p.data.OutputClips = slices.DeleteFunc(p.data.OutputClips, func(c Clip) bool { return c.Name == name })
	p.data.OutputClips = append(p.data.OutputClips, out)
	p.dirty = true
}

// RemoveClip drops the input clip called name and any output clip of the same
// name. It reports whether an input clip was removed.
func (p *Project) RemoveClip(name string) bool {
	idx := p.clipIndex(name)
	if idx < 0 {
		return false
	}
	p.data.Clips = slices.Delete(p.data.Clips, idx, idx+1)
	p.data.OutputClips = slices.DeleteFunc(p.data.OutputClips, func(c Clip) bool { return c.Name == name })
	if p.data.DefaultTrackableClip == name {
		p.data.DefaultTrackableClip = ""
	}
	p.dirty = true
	return true
}

// Relink points the input clip called name at path.
func (p *Project) Relink(name, path string, width, height int) error {
	idx := p.clipIndex(name)
	if idx < 0 {
		return fmt.Errorf("%w: clip %q", services.ErrNotFound, name)
	}
	p.data.Clips[idx].Path = path
	if width > 0 && height > 0 {
		p.data.Clips[idx].Width = width
		p.data.Clips[idx].Height = height
	}
	p.dirty = true
	return nil
}

// DefaultTrackableClip returns the clip tracking runs on.
func (p *Project) DefaultTrackableClip() (Clip, bool) {
	if p.data.DefaultTrackableClip == "" {
		return Clip{}, false
	}
	return p.Clip(p.data.DefaultTrackableClip)
}

func (p *Project) clipIndex(name string) int {
	return slices.IndexFunc(p.data.Clips, func(c Clip) bool { return c.Name == name })
}

func clipNameFromPath(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
