package host

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"mochapipe/internal/fileutil"
	"mochapipe/internal/logging"
	"mochapipe/internal/services"
)

// PlaceholderClipName is the file copied next to a new project so the
// application has footage to attach it to.
const PlaceholderClipName = "empty.exr"

// Default frame size for footage whose header cannot be read.
const (
	DefaultFrameWidth  = 1920
	DefaultFrameHeight = 1080
)

// Workio holds the currently open project and implements workfile
// open/save for the pipeline.
type Workio struct {
	placeholder string
	logger      *slog.Logger
	current     *Project
}

// NewWorkio returns a workfile handler. placeholder is the clip copied next to
// projects created from scratch.
func NewWorkio(placeholder string, logger *slog.Logger) *Workio {
	return &Workio{
		placeholder: placeholder,
		logger:      logging.NewComponentLogger(logger, "workio"),
	}
}

// FileExtensions lists the workfile extensions.
func (w *Workio) FileExtensions() []string {
	return []string{".mocha"}
}

// HasUnsavedChanges always reports true; the application exposes no dirty
// state to scripts.
func (w *Workio) HasUnsavedChanges() bool {
	return true
}

// Current returns the open project, or nil.
func (w *Workio) Current() *Project {
	return w.current
}

// CurrentFile returns the open project's file, empty when nothing is open or
// the project was never saved.
func (w *Workio) CurrentFile() string {
	if w.current == nil {
		return ""
	}
	return w.current.Path()
}

// OpenFile opens path and makes it the current project.
func (w *Workio) OpenFile(path string) (*Project, error) {
	project, err := Open(path)
	if err != nil {
		return nil, err
	}
	w.current = project
	w.logger.Debug("opened workfile", logging.String("path", project.Path()))
	return project, nil
}

// SaveFile saves the current project, to path when given. With no project
// open, a placeholder project is created next to path first, since a project
// cannot exist without a clip.
func (w *Workio) SaveFile(path string) error {
	if w.current == nil {
		if path == "" {
			return fmt.Errorf("%w: no project open and no path given", services.ErrValidation)
		}
		project, err := w.createPlaceholderProject(filepath.Dir(path))
		if err != nil {
			return err
		}
		w.current = project
	}
	if path == "" {
		return w.current.Save()
	}
	if err := w.current.SaveAs(path); err != nil {
		return err
	}
	w.logger.Info("saved workfile",
		logging.String("path", w.current.Path()),
		logging.String(logging.FieldEventType, "workfile_saved"),
	)
	return nil
}

func (w *Workio) createPlaceholderProject(dir string) (*Project, error) {
	clipPath := filepath.Join(dir, PlaceholderClipName)
	if w.placeholder == "" {
		return nil, fmt.Errorf("%w: placeholder clip not configured", services.ErrConfiguration)
	}
	if err := fileutil.CopyFile(w.placeholder, clipPath); err != nil {
		return nil, fmt.Errorf("copy placeholder clip: %w", err)
	}
	w.logger.Debug("created placeholder project", logging.String("clip", clipPath))
	return NewProject(Clip{Path: clipPath, Width: DefaultFrameWidth, Height: DefaultFrameHeight}), nil
}

// ProbeFrameSize reads the frame size of a still image. Formats the standard
// decoders do not know fall back to the default HD size with a warning; a
// missing file is an error.
func ProbeFrameSize(path string, logger *slog.Logger) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: footage %s", services.ErrNotFound, path)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		logging.WarnWithContext(logger, "frame size unknown, using default", "frame_size_default",
			logging.String("path", path),
			logging.Error(err),
			logging.Int("width", DefaultFrameWidth),
			logging.Int("height", DefaultFrameHeight),
			logging.String(logging.FieldErrorHint, "the clip format is not readable here; check the clip resolution in the project"),
		)
		return DefaultFrameWidth, DefaultFrameHeight, nil
	}
	return cfg.Width, cfg.Height, nil
}
