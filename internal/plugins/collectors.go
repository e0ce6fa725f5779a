package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"strings"

	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/publish"
	"mochapipe/internal/services"
	"mochapipe/internal/textutil"
)

// CollectProject checks the open project and records its file.
type CollectProject struct {
	logger *slog.Logger
}

func (CollectProject) Name() string   { return "CollectProject" }
func (CollectProject) Order() float64 { return pipeline.CollectorOrder - 0.5 }

// CollectContext implements pipeline.ContextCollector.
func (p CollectProject) CollectContext(ctx context.Context, pctx *pipeline.Context) error {
	if pctx.Project == nil {
		return services.NewConfigurationError("No project is open", "open or create a project before publishing")
	}
	pctx.CurrentFile = pctx.Project.Path()
	if pctx.CurrentFile == "" || pctx.Project.Dirty() {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "current file is not saved", "project_unsaved",
			logging.String("current_file", pctx.CurrentFile),
			logging.String(logging.FieldErrorHint, "save the file before continuing"),
			logging.String(logging.FieldImpact, "published workfile may not match the session"),
		)
	}
	return nil
}

// CollectHostPaths resolves the python interpreter and exporter script of
// the host installation.
type CollectHostPaths struct {
	logger *slog.Logger
}

func (CollectHostPaths) Name() string   { return "CollectHostPaths" }
func (CollectHostPaths) Order() float64 { return pipeline.CollectorOrder - 0.45 }

// CollectContext implements pipeline.ContextCollector. An unsupported
// platform aborts the run.
func (p CollectHostPaths) CollectContext(ctx context.Context, pctx *pipeline.Context) error {
	install, err := host.ResolveInstall(pctx.Platform, pctx.Executable)
	if err != nil {
		return err
	}
	pctx.Install = install
	logging.WithContext(ctx, p.logger).Info("collected host paths",
		logging.String("executable", install.Executable),
		logging.String("python", install.Python),
		logging.String("exporter_script", install.ExporterScript),
		logging.String(logging.FieldEventType, "host_paths_collected"),
	)
	return nil
}

// CollectCreatedInstances loads the instances creators stored in the
// project into the run.
type CollectCreatedInstances struct {
	store    *metastore.Store
	registry *pipeline.Registry
	logger   *slog.Logger
}

func (CollectCreatedInstances) Name() string   { return "CollectCreatedInstances" }
func (CollectCreatedInstances) Order() float64 { return pipeline.CollectorOrder - 0.49 }

// CollectContext implements pipeline.ContextCollector.
func (p CollectCreatedInstances) CollectContext(ctx context.Context, pctx *pipeline.Context) error {
	if pctx.Project == nil {
		return services.NewConfigurationError("No project is open", "open or create a project before publishing")
	}
	stored, err := p.store.PublishInstances(pctx.Project)
	if err != nil {
		return fmt.Errorf("read stored instances: %w", err)
	}
	logger := logging.WithContext(ctx, p.logger)
	for _, inst := range stored {
		if _, ok := p.registry.Creator(inst.CreatorIdentifier); !ok {
			logging.WarnWithContext(logger, "instance from unknown creator skipped", "instance_skipped",
				logging.String("creator", inst.CreatorIdentifier),
				logging.String("instance_id", inst.ID),
				logging.String(logging.FieldErrorHint, "enable the creator in the configuration"),
				logging.String(logging.FieldImpact, "instance not published"),
			)
			continue
		}
		pctx.AddInstance(instanceFromStored(inst))
	}
	logger.Debug("collected instances",
		logging.Int("count", len(pctx.Instances())),
	)
	return nil
}

func instanceFromStored(stored metastore.Instance) *pipeline.Instance {
	name := stored.ProductName
	if name == "" {
		name = stored.ID
	}
	data := maps.Clone(stored.Extra)
	if data == nil {
		data = make(map[string]any)
	}
	return &pipeline.Instance{
		ID:                stored.ID,
		Name:              name,
		Label:             name,
		CreatorIdentifier: stored.CreatorIdentifier,
		ProductType:       stored.ProductType,
		ProductName:       stored.ProductName,
		Variant:           stored.Variant,
		FolderPath:        stored.FolderPath,
		Task:              stored.Task,
		Families:          []string{stored.ProductType},
		Active:            stored.IsActive(),
		CreatorAttributes: maps.Clone(stored.CreatorAttributes),
		LayerIndex:        -1,
		Data:              data,
	}
}

// CollectLayerData resolves exporters and layers of tracking or shape
// instances and replaces each instance with one instance per layer.
type CollectLayerData struct {
	name        string
	productType string
	kind        exporter.Kind
	tracking    bool
	logger      *slog.Logger
}

func (p CollectLayerData) Name() string       { return p.name }
func (CollectLayerData) Order() float64       { return pipeline.CollectorOrder - 0.45 }
func (p CollectLayerData) Families() []string { return []string{p.productType} }

// CollectInstance implements pipeline.InstanceCollector.
func (p CollectLayerData) CollectInstance(ctx context.Context, pctx *pipeline.Context, inst *pipeline.Instance) error {
	attrs := inst.CreatorAttributes
	ids, err := attrStrings(attrs, AttrExporter)
	if err != nil {
		return err
	}
	if pctx.Exporters != nil {
		inst.Exporters = pctx.Exporters.Select(p.kind, ids)
	}
	if p.tracking {
		if inst.ExporterOptions, err = exporterOptions(attrs); err != nil {
			return err
		}
	}

	type layerRef struct {
		index int
		layer *host.Layer
	}
	var refs []layerRef
	switch mode := attrString(attrs, AttrLayerMode, LayerModeSelected); mode {
	case LayerModeSelected:
		indices, err := attrInts(attrs, AttrLayers)
		if err != nil {
			return err
		}
		for _, idx := range indices {
			ref := layerRef{index: idx}
			if layer, ok := pctx.Project.Layer(idx); ok {
				ref.layer = &layer
			}
			refs = append(refs, ref)
		}
	case LayerModeAll:
		for idx, layer := range pctx.Project.Layers() {
			refs = append(refs, layerRef{index: idx, layer: &layer})
		}
	default:
		return services.NewConfigurationError(fmt.Sprintf("Invalid layer mode: %s", mode), "choose selected or all layers on the instance")
	}

	// Without layers the instance stays as is for validation to report.
	if len(refs) == 0 {
		return nil
	}

	for _, ref := range refs {
		child := inst.Clone()
		child.LayerIndex = ref.index
		child.Layer = ref.layer
		layerName := fmt.Sprintf("layer%d", ref.index)
		if ref.layer != nil {
			layerName = ref.layer.Name
			child.HasFrameRange = true
			child.FrameStart = ref.layer.InPoint
			child.FrameEnd = ref.layer.OutPoint
		}
		child.Name = inst.Name + "_" + layerName
		child.Label = fmt.Sprintf("%s (%s)", inst.Name, layerName)
		child.ProductName = textutil.ProductName(inst.ProductType, textutil.LayerVariant(layerName, inst.Variant))
		pctx.AddInstance(child)
	}
	pctx.RemoveInstance(inst)
	logging.WithContext(ctx, p.logger).Debug("expanded instance per layer",
		logging.Int("layers", len(refs)),
		logging.Int("exporters", len(inst.Exporters)),
	)
	return nil
}

func exporterOptions(attrs map[string]any) (pipeline.ExporterOptions, error) {
	var opts pipeline.ExporterOptions
	var err error
	if opts.Invert, err = attrBool(attrs, AttrInvert); err != nil {
		return opts, err
	}
	if opts.FrameTime, err = attrFloat(attrs, AttrFrameTime); err != nil {
		return opts, err
	}
	if opts.RemoveLensDistortion, err = attrBool(attrs, AttrRemoveLensDistortion); err != nil {
		return opts, err
	}
	return opts, nil
}

// CollectInstances sets display labels and frame ranges with handles.
type CollectInstances struct{}

func (CollectInstances) Name() string   { return "CollectInstances" }
func (CollectInstances) Order() float64 { return pipeline.CollectorOrder - 0.4 }

// CollectInstance implements pipeline.InstanceCollector.
func (CollectInstances) CollectInstance(_ context.Context, _ *pipeline.Context, inst *pipeline.Instance) error {
	label := fmt.Sprintf("%s (%s)", inst.Name, inst.FolderPath)
	if inst.HasFrameRange {
		label += fmt.Sprintf("  [%d-%d]", inst.FrameStartHandle(), inst.FrameEndHandle())
	}
	inst.Label = label
	return nil
}

// CollectWorkfile turns the current project file into the representation
// of workfile instances.
type CollectWorkfile struct{}

func (CollectWorkfile) Name() string       { return "CollectWorkfile" }
func (CollectWorkfile) Order() float64     { return pipeline.CollectorOrder - 0.01 }
func (CollectWorkfile) Families() []string { return []string{ProductTypeWorkfile} }

// CollectInstance implements pipeline.InstanceCollector.
func (CollectWorkfile) CollectInstance(_ context.Context, pctx *pipeline.Context, inst *pipeline.Instance) error {
	if strings.TrimSpace(pctx.CurrentFile) == "" {
		return &services.PublishError{
			Marker:      services.ErrValidation,
			Title:       "Workfile is not saved",
			Description: workfileNotSavedDescription,
			Hint:        "save the project first",
		}
	}
	dir, file := filepath.Split(pctx.CurrentFile)
	ext := strings.TrimPrefix(filepath.Ext(file), ".")
	inst.Representations = append(inst.Representations, publish.Representation{
		Name:       ext,
		Ext:        ext,
		Files:      []string{file},
		StagingDir: filepath.Clean(dir),
	})
	return nil
}

// CollectVersionTargets plans the version number and publish directory of
// every instance so extractors know where resources go.
type CollectVersionTargets struct {
	versions VersionStore
}

func (CollectVersionTargets) Name() string   { return "CollectVersionTargets" }
func (CollectVersionTargets) Order() float64 { return pipeline.CollectorOrder + 0.2 }

// CollectInstance implements pipeline.InstanceCollector.
func (p CollectVersionTargets) CollectInstance(ctx context.Context, _ *pipeline.Context, inst *pipeline.Instance) error {
	next, err := p.versions.NextVersion(ctx, inst.FolderPath, inst.ProductName)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "CollectVersionTargets", "next version", inst.ProductName, err)
	}
	inst.Version = next
	inst.PublishDir = p.versions.VersionDir(inst.FolderPath, inst.ProductName, next)
	return nil
}
