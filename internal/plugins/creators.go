package plugins

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"mochapipe/internal/config"
	"mochapipe/internal/exporter"
	"mochapipe/internal/logging"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/services"
	"mochapipe/internal/textutil"
)

// Creator identifiers.
const (
	TrackPointsCreatorID = "io.ayon.creators.mochapro.trackpoints"
	ShapeDataCreatorID   = "io.ayon.creators.mochapro.matteshapes"
	WorkfileCreatorID    = "io.ayon.creators.mochapro.workfiles"
)

// Product types.
const (
	ProductTypeTrackPoints = "trackpoints"
	ProductTypeMatteShapes = "matteshapes"
	ProductTypeWorkfile    = "workfile"
)

// WorkfileVariant is the variant of the single workfile instance.
const WorkfileVariant = "Main"

// storedCreator implements the collect/update/remove half of a creator on
// top of the metastore.
type storedCreator struct {
	identifier  string
	label       string
	productType string
}

func (c storedCreator) Identifier() string  { return c.identifier }
func (c storedCreator) Label() string       { return c.label }
func (c storedCreator) ProductType() string { return c.productType }

// Collect returns the stored instances made by this creator.
func (c storedCreator) Collect(cc *pipeline.CreateContext) ([]metastore.Instance, error) {
	if err := checkCreateContext(cc); err != nil {
		return nil, err
	}
	all, err := cc.Store.PublishInstances(cc.Project)
	if err != nil {
		return nil, err
	}
	var out []metastore.Instance
	for _, inst := range all {
		if inst.CreatorIdentifier == c.identifier {
			out = append(out, inst)
		}
	}
	return out, nil
}

// Update writes instances back, replacing stored instances with the same id
// and appending unknown ones.
func (c storedCreator) Update(cc *pipeline.CreateContext, instances []metastore.Instance) error {
	if err := checkCreateContext(cc); err != nil {
		return err
	}
	current, err := cc.Store.PublishInstances(cc.Project)
	if err != nil {
		return err
	}
	for _, inst := range instances {
		if inst.ID == "" {
			return fmt.Errorf("%w: instance without instance_id", services.ErrValidation)
		}
		idx := slices.IndexFunc(current, func(existing metastore.Instance) bool { return existing.ID == inst.ID })
		if idx < 0 {
			current = append(current, inst)
			continue
		}
		current[idx] = inst
	}
	return cc.Store.WritePublishInstances(cc.Project, current)
}

// Remove drops the stored instances with the given ids.
func (c storedCreator) Remove(cc *pipeline.CreateContext, ids []string) error {
	if err := checkCreateContext(cc); err != nil {
		return err
	}
	for _, id := range ids {
		if err := cc.Store.RemovePublishInstance(cc.Project, id); err != nil {
			return err
		}
	}
	return nil
}

func checkCreateContext(cc *pipeline.CreateContext) error {
	if cc == nil || cc.Project == nil || cc.Store == nil {
		return fmt.Errorf("%w: no project is open", services.ErrConfiguration)
	}
	return nil
}

// ProductCreator marks layers of the project for export with a set of
// exporters of one kind.
type ProductCreator struct {
	storedCreator
	kind     exporter.Kind
	tracking bool
	settings func(config.Create) config.CreatorSettings
}

// NewTrackPointsCreator returns the creator for tracking data.
func NewTrackPointsCreator() *ProductCreator {
	return &ProductCreator{
		storedCreator: storedCreator{identifier: TrackPointsCreatorID, label: "Track Points", productType: ProductTypeTrackPoints},
		kind:          exporter.KindTracking,
		tracking:      true,
		settings:      func(c config.Create) config.CreatorSettings { return c.TrackingPoints },
	}
}

// NewShapeDataCreator returns the creator for shape data.
func NewShapeDataCreator() *ProductCreator {
	return &ProductCreator{
		storedCreator: storedCreator{identifier: ShapeDataCreatorID, label: "Shape Data", productType: ProductTypeMatteShapes},
		kind:          exporter.KindShape,
		settings:      func(c config.Create) config.CreatorSettings { return c.ShapeData },
	}
}

// Kind is the exporter kind the creator selects from.
func (c *ProductCreator) Kind() exporter.Kind {
	return c.kind
}

// DefaultAttributes returns the attributes a new instance starts with.
func (c *ProductCreator) DefaultAttributes(cc *pipeline.CreateContext) map[string]any {
	attrs := map[string]any{
		AttrLayers:    []any{},
		AttrExporter:  []any{},
		AttrLayerMode: LayerModeSelected,
	}
	if cc != nil && cc.Exporters != nil {
		ids := cc.Exporters.Defaults(c.kind, cc.HostVersion, c.settings(cc.Settings).DefaultExporters)
		exporters := make([]any, 0, len(ids))
		for _, id := range ids {
			exporters = append(exporters, id)
		}
		attrs[AttrExporter] = exporters
	}
	if c.tracking {
		attrs[AttrFrameTime] = 0.0
		attrs[AttrInvert] = false
		attrs[AttrRemoveLensDistortion] = false
	}
	return attrs
}

// Create stores a new instance for variant. attrs override the defaults.
func (c *ProductCreator) Create(cc *pipeline.CreateContext, variant string, attrs map[string]any) (metastore.Instance, error) {
	if err := checkCreateContext(cc); err != nil {
		return metastore.Instance{}, err
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		return metastore.Instance{}, fmt.Errorf("%w: variant is required", services.ErrValidation)
	}

	merged := c.DefaultAttributes(cc)
	maps.Copy(merged, attrs)
	if err := c.validateAttributes(cc, merged); err != nil {
		return metastore.Instance{}, err
	}

	active := true
	inst := metastore.Instance{
		ID:                uuid.NewString(),
		CreatorIdentifier: c.identifier,
		ProductType:       c.productType,
		ProductName:       textutil.ProductName(c.productType, variant),
		Variant:           variant,
		FolderPath:        cc.Session.FolderPath,
		Task:              cc.Session.Task,
		Active:            &active,
		CreatorAttributes: merged,
	}
	if err := cc.Store.AddPublishInstance(cc.Project, inst); err != nil {
		return metastore.Instance{}, err
	}
	if cc.Logger != nil {
		cc.Logger.Info("instance created",
			logging.String("creator", c.identifier),
			logging.String("product", inst.ProductName),
			logging.String("instance_id", inst.ID),
			logging.String(logging.FieldEventType, "instance_created"),
		)
	}
	return inst, nil
}

func (c *ProductCreator) validateAttributes(cc *pipeline.CreateContext, attrs map[string]any) error {
	mode := attrString(attrs, AttrLayerMode, LayerModeSelected)
	if mode != LayerModeSelected && mode != LayerModeAll {
		return fmt.Errorf("%w: invalid layer mode %q", services.ErrValidation, mode)
	}
	layers, err := attrInts(attrs, AttrLayers)
	if err != nil {
		return err
	}
	for _, idx := range layers {
		if _, ok := cc.Project.Layer(idx); !ok {
			return fmt.Errorf("%w: layer index %d does not exist in the project", services.ErrValidation, idx)
		}
	}
	ids, err := attrStrings(attrs, AttrExporter)
	if err != nil {
		return err
	}
	if cc.Exporters != nil {
		for _, id := range ids {
			info, ok := cc.Exporters.ByID(id)
			if !ok || info.Kind != c.kind {
				return fmt.Errorf("%w: unknown %s exporter %q", services.ErrValidation, c.kind, id)
			}
		}
	}
	if c.tracking {
		if _, err := attrFloat(attrs, AttrFrameTime); err != nil {
			return err
		}
		for _, key := range []string{AttrInvert, AttrRemoveLensDistortion} {
			if _, err := attrBool(attrs, key); err != nil {
				return err
			}
		}
	}
	return nil
}

// WorkfileCreator keeps a single workfile instance in the project that
// follows the session context.
type WorkfileCreator struct {
	storedCreator
}

// NewWorkfileCreator returns the workfile auto creator.
func NewWorkfileCreator() *WorkfileCreator {
	return &WorkfileCreator{
		storedCreator: storedCreator{identifier: WorkfileCreatorID, label: "Workfile", productType: ProductTypeWorkfile},
	}
}

// Create is AutoCreate; the workfile variant is fixed.
func (c *WorkfileCreator) Create(cc *pipeline.CreateContext, variant string, _ map[string]any) (metastore.Instance, error) {
	if variant = strings.TrimSpace(variant); variant != "" && variant != WorkfileVariant {
		return metastore.Instance{}, fmt.Errorf("%w: workfile variant is always %s", services.ErrValidation, WorkfileVariant)
	}
	return c.AutoCreate(cc)
}

// AutoCreate stores the workfile instance when missing and moves it to the
// session folder and task when they changed.
func (c *WorkfileCreator) AutoCreate(cc *pipeline.CreateContext) (metastore.Instance, error) {
	existing, err := c.Collect(cc)
	if err != nil {
		return metastore.Instance{}, err
	}
	productName := textutil.ProductName(c.productType, WorkfileVariant)

	if len(existing) == 0 {
		active := true
		inst := metastore.Instance{
			ID:                uuid.NewString(),
			CreatorIdentifier: c.identifier,
			ProductType:       c.productType,
			ProductName:       productName,
			Variant:           WorkfileVariant,
			FolderPath:        cc.Session.FolderPath,
			Task:              cc.Session.Task,
			Active:            &active,
		}
		if cc.Logger != nil {
			cc.Logger.Info("auto-creating workfile instance",
				logging.String("folder_path", inst.FolderPath),
				logging.String("task", inst.Task),
				logging.String(logging.FieldEventType, "instance_created"),
			)
		}
		if err := cc.Store.AddPublishInstance(cc.Project, inst); err != nil {
			return metastore.Instance{}, err
		}
		return inst, nil
	}

	inst := existing[0]
	if inst.FolderPath == cc.Session.FolderPath && inst.Task == cc.Session.Task {
		return inst, nil
	}
	inst.FolderPath = cc.Session.FolderPath
	inst.Task = cc.Session.Task
	inst.ProductName = productName
	if err := cc.Store.UpdatePublishInstance(cc.Project, inst); err != nil {
		return metastore.Instance{}, err
	}
	return inst, nil
}
