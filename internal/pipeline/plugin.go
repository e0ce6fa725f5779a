package pipeline

import (
	"context"
	"log/slog"

	"mochapipe/internal/config"
	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/metastore"
)

// Plugin is the part every publish plugin shares.
type Plugin interface {
	Name() string
	Order() float64
}

// FamilyFilter restricts a plugin to instances of the listed families.
type FamilyFilter interface {
	Families() []string
}

// ContextCollector gathers session-wide data.
type ContextCollector interface {
	Plugin
	CollectContext(ctx context.Context, pctx *Context) error
}

// InstanceCollector gathers per-instance data. It may add instances to or
// remove them from pctx.
type InstanceCollector interface {
	Plugin
	CollectInstance(ctx context.Context, pctx *Context, inst *Instance) error
}

// Validator checks an instance before anything is written.
type Validator interface {
	Plugin
	Validate(ctx context.Context, pctx *Context, inst *Instance) error
}

// Extractor writes instance data into its staging directory.
type Extractor interface {
	Plugin
	Extract(ctx context.Context, pctx *Context, inst *Instance) error
}

// Integrator registers extracted files as a new version.
type Integrator interface {
	Plugin
	Integrate(ctx context.Context, pctx *Context, inst *Instance) error
}

// CreateContext is what creators work against.
type CreateContext struct {
	Project     *host.Project
	Store       *metastore.Store
	Exporters   *exporter.Registry
	HostVersion string
	Session     config.Session
	Settings    config.Create
	Logger      *slog.Logger
}

// Creator marks data for publishing by persisting instances in the project.
type Creator interface {
	Identifier() string
	Label() string
	ProductType() string
	Create(cc *CreateContext, variant string, attrs map[string]any) (metastore.Instance, error)
	Collect(cc *CreateContext) ([]metastore.Instance, error)
	Update(cc *CreateContext, instances []metastore.Instance) error
	Remove(cc *CreateContext, ids []string) error
}

// AutoCreator is a creator that maintains its instance without user action.
type AutoCreator interface {
	Creator
	AutoCreate(cc *CreateContext) (metastore.Instance, error)
}

// LoadContext is what loaders work against.
type LoadContext struct {
	Project *host.Project
	Store   *metastore.Store
	Logger  *slog.Logger
}

// LoadRequest identifies the representation to bring into the project.
type LoadRequest struct {
	Path             string
	Name             string
	Namespace        string
	RepresentationID string
	Version          string
}

// Loader brings published files into the project and keeps a container
// record for them.
type Loader interface {
	Name() string
	Load(lc *LoadContext, req LoadRequest) (metastore.Container, error)
	Update(lc *LoadContext, container metastore.Container, req LoadRequest) (metastore.Container, error)
	Switch(lc *LoadContext, container metastore.Container, req LoadRequest) (metastore.Container, error)
	Remove(lc *LoadContext, container metastore.Container) error
}
