package plugins

import (
	"context"
	"fmt"
	"strings"

	"mochapipe/internal/pipeline"
	"mochapipe/internal/services"
)

const missingLayerDescription = `### Issue

The instance doesn't have layers set. Please select the layer
in the publisher, or set the layer mode to "All layers".`

const missingExporterDescription = `### Issue

You need to select at least one exporter.`

const unknownLayerDescription = `### Issue

The instance is missing the layer attribute. Select the layer
in the publisher.`

const missingTrackDescription = `### Issue

The layer has no tracking data. Track the layer before publishing
or remove it from the instance.`

const duplicateProductDescription = `### Issue

More than one instance publishes the same product into this folder.
Rename the variant of one of them, or give the layers distinct names.`

const workfileNotSavedDescription = `### Issue

The project has never been saved, so there is no workfile to publish.`

// ValidateLayersAndExporters requires a layer and at least one exporter.
type ValidateLayersAndExporters struct{}

func (ValidateLayersAndExporters) Name() string   { return "ValidateLayersAndExporters" }
func (ValidateLayersAndExporters) Order() float64 { return pipeline.ValidatorOrder + 0.1 }

func (ValidateLayersAndExporters) Families() []string {
	return []string{ProductTypeMatteShapes, ProductTypeTrackPoints}
}

// Validate implements pipeline.Validator.
func (ValidateLayersAndExporters) Validate(_ context.Context, _ *pipeline.Context, inst *pipeline.Instance) error {
	if inst.Layer == nil {
		return services.NewValidationError(fmt.Sprintf("No layers set for instance %s", inst.Name), missingLayerDescription)
	}
	if len(inst.Exporters) == 0 {
		return services.NewValidationError(fmt.Sprintf("No exporters set for instance %s", inst.Name), missingExporterDescription)
	}
	return nil
}

// ValidateTrackpointLayers checks that the selected layer exists and carries
// tracking data.
type ValidateTrackpointLayers struct{}

func (ValidateTrackpointLayers) Name() string       { return "ValidateTrackpointLayers" }
func (ValidateTrackpointLayers) Order() float64     { return pipeline.ValidatorOrder + 0.1 }
func (ValidateTrackpointLayers) Families() []string { return []string{ProductTypeTrackPoints} }

// Validate implements pipeline.Validator.
func (ValidateTrackpointLayers) Validate(_ context.Context, _ *pipeline.Context, inst *pipeline.Instance) error {
	if inst.Layer == nil {
		return services.NewValidationError(
			fmt.Sprintf("Specified layer index (%d) does not exist in the project", inst.LayerIndex),
			unknownLayerDescription,
		)
	}
	if len(inst.Layer.Track) == 0 {
		return services.NewValidationError(fmt.Sprintf("Layer %s has no tracking data", inst.Layer.Name), missingTrackDescription)
	}
	if len(inst.Exporters) == 0 {
		return services.NewValidationError(fmt.Sprintf("No exporters set for instance %s", inst.Name), missingExporterDescription)
	}
	return nil
}

// ValidateProductUniqueness fails every active instance whose product name is
// shared with another active instance in the same folder, before anything is
// extracted.
type ValidateProductUniqueness struct{}

func (ValidateProductUniqueness) Name() string   { return "ValidateProductUniqueness" }
func (ValidateProductUniqueness) Order() float64 { return pipeline.ValidatorOrder }

// Validate implements pipeline.Validator.
func (ValidateProductUniqueness) Validate(_ context.Context, pctx *pipeline.Context, inst *pipeline.Instance) error {
	if inst.ProductName == "" {
		return nil
	}
	var clashes []string
	for _, other := range pctx.Instances() {
		if other == inst || !other.Active {
			continue
		}
		if other.FolderPath == inst.FolderPath && other.ProductName == inst.ProductName {
			clashes = append(clashes, other.Name)
		}
	}
	if len(clashes) == 0 {
		return nil
	}
	return &services.PublishError{
		Marker:      services.ErrValidation,
		Title:       fmt.Sprintf("Product %s is published by more than one instance", inst.ProductName),
		Description: duplicateProductDescription,
		Hint:        "also published by " + strings.Join(clashes, ", "),
	}
}
