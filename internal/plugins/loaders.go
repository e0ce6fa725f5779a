package plugins

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/services"
)

// Loader names as recorded in containers.
const (
	LoadClipName          = "LoadClip"
	LoadTrackableClipName = "LoadTrackableClip"
)

// ErrNoTrackableClip is returned when the project has no clip to track on.
var ErrNoTrackableClip = fmt.Errorf("%w: no trackable clip found in the project", services.ErrValidation)

func checkLoadContext(lc *pipeline.LoadContext) error {
	if lc == nil || lc.Project == nil || lc.Store == nil {
		return fmt.Errorf("%w: no project is open", services.ErrConfiguration)
	}
	return nil
}

func checkRequest(req pipeline.LoadRequest) error {
	if strings.TrimSpace(req.Path) == "" {
		return fmt.Errorf("%w: representation path is required", services.ErrValidation)
	}
	return nil
}

func newContainer(loader, name string, req pipeline.LoadRequest) metastore.Container {
	return metastore.Container{
		Name:           name,
		ID:             metastore.ContainerID,
		Namespace:      req.Namespace,
		Loader:         loader,
		Representation: req.RepresentationID,
		ObjectName:     name,
		Timestamp:      time.Now().UnixNano(),
		Version:        req.Version,
	}
}

// ClipLoader adds footage as a new input clip with a matching output clip.
type ClipLoader struct{}

// Name implements pipeline.Loader.
func (ClipLoader) Name() string { return LoadClipName }

// Load adds the clip and records a container for it.
func (ClipLoader) Load(lc *pipeline.LoadContext, req pipeline.LoadRequest) (metastore.Container, error) {
	if err := checkLoadContext(lc); err != nil {
		return metastore.Container{}, err
	}
	if err := checkRequest(req); err != nil {
		return metastore.Container{}, err
	}
	width, height, err := host.ProbeFrameSize(req.Path, lc.Logger)
	if err != nil {
		return metastore.Container{}, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(req.Path), filepath.Ext(req.Path))
	}
	clip := host.Clip{Name: name, Path: req.Path, Width: width, Height: height}
	if err := lc.Project.AddClip(clip); err != nil {
		return metastore.Container{}, err
	}
	lc.Project.NewOutputClip(clip, name)

	container := newContainer(LoadClipName, name, req)
	if err := lc.Store.AddContainer(lc.Project, container); err != nil {
		return metastore.Container{}, err
	}
	logLoaded(lc, container, req.Path)
	return container, nil
}

// Update relinks the clip and bumps the container.
func (l ClipLoader) Update(lc *pipeline.LoadContext, container metastore.Container, req pipeline.LoadRequest) (metastore.Container, error) {
	return updateContainer(lc, container, req, false)
}

// Switch is Update.
func (l ClipLoader) Switch(lc *pipeline.LoadContext, container metastore.Container, req pipeline.LoadRequest) (metastore.Container, error) {
	return l.Update(lc, container, req)
}

// Remove drops the clip and its container.
func (ClipLoader) Remove(lc *pipeline.LoadContext, container metastore.Container) error {
	return removeContainer(lc, container)
}

// TrackableClipLoader relinks the project's trackable clip to new footage.
type TrackableClipLoader struct{}

// Name implements pipeline.Loader.
func (TrackableClipLoader) Name() string { return LoadTrackableClipName }

// Load relinks the default trackable clip. A container already tracking the
// clip is updated instead of adding another.
func (TrackableClipLoader) Load(lc *pipeline.LoadContext, req pipeline.LoadRequest) (metastore.Container, error) {
	if err := checkLoadContext(lc); err != nil {
		return metastore.Container{}, err
	}
	if err := checkRequest(req); err != nil {
		return metastore.Container{}, err
	}
	clip, ok := lc.Project.DefaultTrackableClip()
	if !ok {
		return metastore.Container{}, ErrNoTrackableClip
	}
	width, height, err := host.ProbeFrameSize(req.Path, lc.Logger)
	if err != nil {
		return metastore.Container{}, fmt.Errorf("failed to get image info from %s: %w", req.Path, err)
	}
	if err := lc.Project.Relink(clip.Name, req.Path, width, height); err != nil {
		return metastore.Container{}, err
	}

	containers, err := lc.Store.Containers(lc.Project)
	if err != nil {
		return metastore.Container{}, err
	}
	container := newContainer(LoadTrackableClipName, clip.Name, req)
	if idx := slices.IndexFunc(containers, func(c metastore.Container) bool { return c.Name == clip.Name }); idx >= 0 {
		container = containers[idx]
		container.Representation = req.RepresentationID
		container.Version = req.Version
	}
	if err := lc.Store.AddContainer(lc.Project, container); err != nil {
		return metastore.Container{}, err
	}
	logLoaded(lc, container, req.Path)
	return container, nil
}

// Update relinks the clip, refreshing its frame size, and bumps the
// container.
func (TrackableClipLoader) Update(lc *pipeline.LoadContext, container metastore.Container, req pipeline.LoadRequest) (metastore.Container, error) {
	return updateContainer(lc, container, req, true)
}

// Switch is Update.
func (l TrackableClipLoader) Switch(lc *pipeline.LoadContext, container metastore.Container, req pipeline.LoadRequest) (metastore.Container, error) {
	return l.Update(lc, container, req)
}

// Remove drops the clip and its container.
func (TrackableClipLoader) Remove(lc *pipeline.LoadContext, container metastore.Container) error {
	return removeContainer(lc, container)
}

func updateContainer(lc *pipeline.LoadContext, container metastore.Container, req pipeline.LoadRequest, probe bool) (metastore.Container, error) {
	if err := checkLoadContext(lc); err != nil {
		return metastore.Container{}, err
	}
	if err := checkRequest(req); err != nil {
		return metastore.Container{}, err
	}
	var width, height int
	if probe {
		w, h, err := host.ProbeFrameSize(req.Path, lc.Logger)
		if err != nil {
			return metastore.Container{}, fmt.Errorf("failed to get image info from %s: %w", req.Path, err)
		}
		width, height = w, h
	}
	if err := lc.Project.Relink(container.ObjectName, req.Path, width, height); err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			return metastore.Container{}, err
		}
		warnClipMissing(lc, container)
	}

	container.Representation = req.RepresentationID
	container.Version = req.Version
	if err := lc.Store.AddContainer(lc.Project, container); err != nil {
		return metastore.Container{}, err
	}
	return container, nil
}

func removeContainer(lc *pipeline.LoadContext, container metastore.Container) error {
	if err := checkLoadContext(lc); err != nil {
		return err
	}
	if !lc.Project.RemoveClip(container.ObjectName) {
		warnClipMissing(lc, container)
	}
	return lc.Store.RemoveContainer(lc.Project, container.Name, container.Namespace)
}

func warnClipMissing(lc *pipeline.LoadContext, container metastore.Container) {
	if lc.Logger == nil {
		return
	}
	logging.WarnWithContext(lc.Logger, "clip not found", "clip_missing",
		logging.String("clip", container.ObjectName),
		logging.String("container", container.Name),
		logging.String(logging.FieldErrorHint, "the clip was removed from the project; the container record is still updated"),
	)
}

func logLoaded(lc *pipeline.LoadContext, container metastore.Container, path string) {
	if lc.Logger == nil {
		return
	}
	lc.Logger.Info("clip loaded",
		logging.String("loader", container.Loader),
		logging.String("clip", container.ObjectName),
		logging.String("path", path),
		logging.String(logging.FieldEventType, "clip_loaded"),
	)
}
