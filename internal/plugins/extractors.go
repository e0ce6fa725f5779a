package plugins

import (
	"context"
	"log/slog"

	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/logging"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/publish"
	"mochapipe/internal/services"
	"mochapipe/internal/staging"
)

// ExtractLayerData runs the selected exporters on the instance layer and
// turns their output into representations and resource transfers.
type ExtractLayerData struct {
	name        string
	productType string
	logger      *slog.Logger
}

func (p ExtractLayerData) Name() string       { return p.name }
func (ExtractLayerData) Order() float64       { return pipeline.ExtractorOrder }
func (p ExtractLayerData) Families() []string { return []string{p.productType} }

// Extract implements pipeline.Extractor.
func (p ExtractLayerData) Extract(ctx context.Context, pctx *pipeline.Context, inst *pipeline.Instance) error {
	if inst.Layer == nil {
		return services.NewValidationError("Instance has no layer", missingLayerDescription)
	}
	if inst.StagingDir == "" {
		dir, err := staging.Allocate(pctx.StagingRoot, inst.Name)
		if err != nil {
			return err
		}
		inst.StagingDir = dir
	}
	logger := logging.WithContext(ctx, p.logger)

	outputs, err := exporter.Run(ctx, exporter.Request{
		ProductName: inst.ProductName,
		Project:     pctx.Project,
		Layers:      []host.Layer{*inst.Layer},
		Exporters:   inst.Exporters,
		StagingDir:  inst.StagingDir,
		HostVersion: pctx.HostVersion,
	}, logger)
	if err != nil {
		return err
	}

	normalizer := publish.NewNormalizer(pctx.HostVersion, inst.PublishDir, logger)
	result, err := normalizer.NormalizeAll(outputs)
	if err != nil {
		return err
	}
	inst.Representations = append(inst.Representations, result.Representations...)
	inst.Transfers = append(inst.Transfers, result.Transfers...)

	logger.Info("extracted layer data",
		logging.String("layer", inst.Layer.Name),
		logging.Int("representations", len(result.Representations)),
		logging.Int("transfers", len(result.Transfers)),
		logging.String("staging_dir", inst.StagingDir),
		logging.String(logging.FieldEventType, "extract_finished"),
	)
	return nil
}
