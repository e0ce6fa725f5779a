package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/services"
)

// Request describes one export of a layer.
type Request struct {
	// ProductName prefixes every output file.
	ProductName string
	Project     *host.Project
	Layers      []host.Layer
	Exporters   []Info
	StagingDir  string
	HostVersion string
	// Views restricts the export to views matching by name or abbreviation.
	// Empty exports all views.
	Views []string
}

// Output is what one exporter produced.
type Output struct {
	// Name is the exporter label.
	Name       string
	Ext        string
	Files      []string
	StagingDir string
	OutputName string
	Kind       Kind
	ExporterID string
}

// Run invokes every exporter of req in turn, writes the returned files into
// the staging dir and reports them. A failing exporter stops the run.
func Run(ctx context.Context, req Request, logger *slog.Logger) ([]Output, error) {
	logger = logging.NewComponentLogger(logger, "exporter")
	if req.Project == nil {
		return nil, fmt.Errorf("%w: no project", services.ErrValidation)
	}
	if strings.TrimSpace(req.StagingDir) == "" {
		return nil, fmt.Errorf("%w: staging dir is required", services.ErrConfiguration)
	}
	if err := os.MkdirAll(req.StagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	stagingDir, err := filepath.Abs(req.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve staging dir: %w", err)
	}
	views := selectViews(req.Project.Views(), req.Views)

	outputs := make([]Output, 0, len(req.Exporters))
	for _, info := range req.Exporters {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		output, err := runOne(ctx, req, info, stagingDir, views)
		if err != nil {
			return nil, err
		}
		logger.Debug("exporter finished",
			logging.String("exporter", info.Label),
			logging.Strings("files", output.Files),
		)
		outputs = append(outputs, output)
	}
	return outputs, nil
}

func runOne(ctx context.Context, req Request, info Info, stagingDir string, views []host.View) (Output, error) {
	fileName := req.ProductName + "_" + info.ShortID()
	if host.LabelsCarryExtension(req.HostVersion) {
		ext, ok := ExtensionFromLabel(info.Label)
		if !ok {
			return Output{}, services.Wrap(services.ErrConfiguration, "exporter", info.Label, "cannot read file extension from exporter label", nil)
		}
		fileName += "." + ext
	}
	dest := filepath.Join(stagingDir, fileName)

	result, err := info.Exporter.Export(ctx, req.Project, req.Layers, dest, views)
	if err != nil {
		return Output{}, services.Wrap(services.ErrExternalTool, "exporter", info.Label, "export failed", err)
	}
	if len(result) == 0 {
		return Output{}, fmt.Errorf("%w: %s", ErrExportFailed, info.Label)
	}

	keys := make([]string, 0, len(result))
	for key := range result {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	output := Output{
		Name:       info.Label,
		StagingDir: stagingDir,
		OutputName: info.ShortID(),
		Kind:       info.Kind,
		ExporterID: info.ID,
	}
	for _, key := range keys {
		path := key
		if !filepath.IsAbs(path) {
			path = filepath.Join(stagingDir, path)
		}
		if filepath.Dir(path) != stagingDir {
			return Output{}, services.Wrap(services.ErrExternalTool, "exporter", info.Label, fmt.Sprintf("output %s is outside the staging dir", path), nil)
		}
		if err := os.WriteFile(path, result[key], 0o644); err != nil {
			return Output{}, fmt.Errorf("write export output: %w", err)
		}
		output.Files = append(output.Files, filepath.Base(path))
		if output.Ext == "" {
			output.Ext = strings.TrimPrefix(filepath.Ext(path), ".")
		}
	}
	return output, nil
}

func selectViews(all []host.View, wanted []string) []host.View {
	if len(wanted) == 0 {
		return all
	}
	var out []host.View
	for _, view := range all {
		if slices.Contains(wanted, view.Name) || slices.Contains(wanted, view.Abbr) {
			out = append(out, view)
		}
	}
	return out
}
