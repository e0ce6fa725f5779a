package plugins

import (
	"fmt"
	"log/slog"
	"runtime"

	"mochapipe/internal/config"
	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
)

// Options carries what the plugins need.
type Options struct {
	Config *config.Config
	Store  *metastore.Store
	// Versions may be nil, in which case nothing is integrated and publishing
	// stops after extraction.
	Versions VersionStore
	Logger   *slog.Logger
}

// Register adds the enabled creators, both loaders and the publish plugins
// to reg.
func Register(reg *pipeline.Registry, opts Options) error {
	if opts.Config == nil {
		return fmt.Errorf("plugins: config is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	store := opts.Store
	if store == nil {
		store = metastore.NewStore(logger)
	}

	var creators []pipeline.Creator
	if opts.Config.Create.TrackingPoints.Enabled {
		creators = append(creators, NewTrackPointsCreator())
	}
	if opts.Config.Create.ShapeData.Enabled {
		creators = append(creators, NewShapeDataCreator())
	}
	creators = append(creators, NewWorkfileCreator())
	for _, c := range creators {
		if err := reg.RegisterCreator(c); err != nil {
			return err
		}
	}

	for _, l := range []pipeline.Loader{ClipLoader{}, TrackableClipLoader{}} {
		if err := reg.RegisterLoader(l); err != nil {
			return err
		}
	}

	publishLogger := logging.NewComponentLogger(logger, "publish")
	plugins := []pipeline.Plugin{
		CollectProject{logger: publishLogger},
		CollectCreatedInstances{store: store, registry: reg, logger: publishLogger},
		CollectHostPaths{logger: publishLogger},
		CollectLayerData{name: "CollectTrackingData", productType: ProductTypeTrackPoints, kind: exporter.KindTracking, tracking: true, logger: publishLogger},
		CollectLayerData{name: "CollectShapeData", productType: ProductTypeMatteShapes, kind: exporter.KindShape, logger: publishLogger},
		CollectInstances{},
		CollectWorkfile{},
		ValidateProductUniqueness{},
		ValidateLayersAndExporters{},
		ValidateTrackpointLayers{},
		ExtractLayerData{name: "ExtractTrackingData", productType: ProductTypeTrackPoints, logger: publishLogger},
		ExtractLayerData{name: "ExtractShapeData", productType: ProductTypeMatteShapes, logger: publishLogger},
	}
	if opts.Versions != nil {
		plugins = append(plugins,
			CollectVersionTargets{versions: opts.Versions},
			IntegrateVersion{versions: opts.Versions, logger: publishLogger},
		)
	}
	for _, p := range plugins {
		if err := reg.RegisterPlugin(p); err != nil {
			return err
		}
	}
	return nil
}

// NewPublishContext builds the context of a publish run for project.
func NewPublishContext(cfg *config.Config, project *host.Project, exporters *exporter.Registry) *pipeline.Context {
	platform := cfg.Host.Platform
	if platform == "" {
		platform = runtime.GOOS
	}
	return &pipeline.Context{
		Project:     project,
		HostVersion: cfg.Host.Version,
		Platform:    platform,
		Executable:  cfg.Host.Executable,
		Session:     cfg.Session,
		StagingRoot: cfg.Paths.StagingDir,
		PublishRoot: cfg.Paths.PublishRoot,
		Exporters:   exporters,
	}
}

// NewCreateContext builds the context creators work against.
func NewCreateContext(cfg *config.Config, project *host.Project, store *metastore.Store, exporters *exporter.Registry, logger *slog.Logger) *pipeline.CreateContext {
	return &pipeline.CreateContext{
		Project:     project,
		Store:       store,
		Exporters:   exporters,
		HostVersion: cfg.Host.Version,
		Session:     cfg.Session,
		Settings:    cfg.Create,
		Logger:      logger,
	}
}
