package plugins

import (
	"context"
	"log/slog"

	"mochapipe/internal/logging"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/registry"
)

// VersionStore is the part of the version registry the publish plugins use.
type VersionStore interface {
	NextVersion(ctx context.Context, folderPath, productName string) (int, error)
	VersionDir(folderPath, productName string, number int) string
	Integrate(ctx context.Context, req registry.IntegrateRequest) (*registry.Version, error)
}

// IntegrateVersion registers the instance representations as a new version.
type IntegrateVersion struct {
	versions VersionStore
	logger   *slog.Logger
}

func (IntegrateVersion) Name() string   { return "IntegrateVersion" }
func (IntegrateVersion) Order() float64 { return pipeline.IntegratorOrder }

// Integrate implements pipeline.Integrator.
func (p IntegrateVersion) Integrate(ctx context.Context, pctx *pipeline.Context, inst *pipeline.Instance) error {
	version, err := p.versions.Integrate(ctx, registry.IntegrateRequest{
		FolderPath:      inst.FolderPath,
		ProductName:     inst.ProductName,
		ProductType:     inst.ProductType,
		Task:            inst.Task,
		SourceFile:      pctx.CurrentFile,
		Version:         inst.Version,
		Representations: inst.Representations,
		Transfers:       inst.Transfers,
	})
	if err != nil {
		return err
	}
	inst.Version = version.Number
	inst.PublishDir = version.Dir
	logging.WithContext(ctx, p.logger).Info("version integrated",
		logging.String("product", inst.ProductName),
		logging.String("version", version.Label()),
		logging.String("dir", version.Dir),
		logging.String(logging.FieldEventType, "version_integrated"),
	)
	return nil
}
