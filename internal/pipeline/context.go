package pipeline

import (
	"maps"
	"slices"

	"mochapipe/internal/config"
	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/publish"
)

// Standard plugin orders. Plugins shift within a stage with small offsets,
// e.g. CollectorOrder - 0.45.
const (
	CollectorOrder  = 0.0
	ValidatorOrder  = 1.0
	ExtractorOrder  = 2.0
	IntegratorOrder = 3.0
)

// ExporterOptions are forwarded to exporters that support them.
type ExporterOptions struct {
	Invert               bool    `json:"invert"`
	FrameTime            float64 `json:"frame_time"`
	RemoveLensDistortion bool    `json:"remove_lens_distortion"`
}

// Instance is one unit of work during a publish run.
type Instance struct {
	ID                string
	Name              string
	Label             string
	CreatorIdentifier string
	ProductType       string
	ProductName       string
	Variant           string
	FolderPath        string
	Task              string
	Families          []string
	Active            bool
	CreatorAttributes map[string]any

	Layer           *host.Layer
	LayerIndex      int
	Exporters       []exporter.Info
	ExporterOptions ExporterOptions

	HasFrameRange bool
	FrameStart    int
	FrameEnd      int
	HandleStart   int
	HandleEnd     int

	StagingDir      string
	PublishDir      string
	Representations []publish.Representation
	Transfers       []publish.Transfer

	// Version is set by the integrator.
	Version int
	Data    map[string]any
}

// HasFamily reports whether the instance's product type or families include
// family. "*" matches everything.
func (i *Instance) HasFamily(family string) bool {
	if family == "*" || family == i.ProductType {
		return true
	}
	return slices.Contains(i.Families, family)
}

// FrameStartHandle is the first frame including the start handle.
func (i *Instance) FrameStartHandle() int {
	return i.FrameStart - i.HandleStart
}

// FrameEndHandle is the last frame including the end handle.
func (i *Instance) FrameEndHandle() int {
	return i.FrameEnd + i.HandleEnd
}

// Clone returns a copy that shares no slices or maps with i.
func (i *Instance) Clone() *Instance {
	out := *i
	out.Families = slices.Clone(i.Families)
	out.CreatorAttributes = maps.Clone(i.CreatorAttributes)
	if i.Layer != nil {
		layer := *i.Layer
		out.Layer = &layer
	}
	out.Exporters = slices.Clone(i.Exporters)
	out.Representations = slices.Clone(i.Representations)
	out.Transfers = slices.Clone(i.Transfers)
	out.Data = maps.Clone(i.Data)
	return &out
}

// Context is the shared state of a publish run.
type Context struct {
	Project     *host.Project
	CurrentFile string
	HostVersion string
	Platform    string
	Executable  string
	Install     host.Install
	Session     config.Session

	// StagingRoot holds per-instance staging directories.
	StagingRoot string
	// PublishRoot is where versions are integrated.
	PublishRoot string
	// Exporters lists the exporters available to extractors.
	Exporters *exporter.Registry

	Data      map[string]any
	instances []*Instance
}

// Instances returns the current instances.
func (c *Context) Instances() []*Instance {
	return slices.Clone(c.instances)
}

// AddInstance appends inst to the run.
func (c *Context) AddInstance(inst *Instance) {
	c.instances = append(c.instances, inst)
}

// RemoveInstance drops inst from the run.
func (c *Context) RemoveInstance(inst *Instance) {
	c.instances = slices.DeleteFunc(c.instances, func(other *Instance) bool { return other == inst })
}

// SetData stores a context value.
func (c *Context) SetData(key string, value any) {
	if c.Data == nil {
		c.Data = make(map[string]any)
	}
	c.Data[key] = value
}
