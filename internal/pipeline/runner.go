package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"mochapipe/internal/logging"
	"mochapipe/internal/services"
)

// Runner executes publish plugins over a context.
type Runner struct {
	registry *Registry
	logger   *slog.Logger
}

// NewRunner returns a runner for the plugins in registry.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	return &Runner{registry: registry, logger: logging.NewComponentLogger(logger, "publish")}
}

type instanceState struct {
	inst   *Instance
	failed bool
	plugin string
	err    error
}

// Publish runs every plugin in order. Instance failures are recorded in the
// report and do not stop other instances; the returned error is reserved for
// failures that make the whole run pointless (a context collector failing or
// ctx being cancelled).
func (r *Runner) Publish(ctx context.Context, pctx *Context) (*Report, error) {
	runID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = services.WithRequestID(ctx, runID)
	}
	report := &Report{RunID: runID, Started: time.Now()}
	states := make(map[*Instance]*instanceState)
	var seen []*Instance
	track := func() {
		for _, inst := range pctx.instances {
			if _, ok := states[inst]; !ok {
				states[inst] = &instanceState{inst: inst}
				seen = append(seen, inst)
			}
		}
	}
	track()

	for _, plugin := range r.registry.Plugins() {
		if err := ctx.Err(); err != nil {
			return r.finish(report, pctx, states, seen), err
		}
		pluginCtx := services.WithPlugin(ctx, plugin.Name())
		logger := logging.WithContext(pluginCtx, r.logger)

		if collector, ok := plugin.(ContextCollector); ok {
			if err := collector.CollectContext(pluginCtx, pctx); err != nil {
				logger.Error("context collector failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "publish_aborted"),
					logging.String(logging.FieldErrorHint, hintFor(err)),
				)
				for _, st := range states {
					if !st.failed {
						st.failed, st.plugin, st.err = true, plugin.Name(), fmt.Errorf("publish aborted: %w", err)
					}
				}
				return r.finish(report, pctx, states, seen), fmt.Errorf("%s: %w", plugin.Name(), err)
			}
			track()
			continue
		}

		for _, inst := range pctx.Instances() {
			st := states[inst]
			if st == nil || st.failed || !inst.Active || !matchesFamilies(plugin, inst) {
				continue
			}
			instCtx := services.WithInstance(pluginCtx, inst.Name)
			if err := r.runOne(instCtx, plugin, pctx, inst); err != nil {
				st.failed, st.plugin, st.err = true, plugin.Name(), err
				logging.WarnWithContext(logging.WithContext(instCtx, r.logger), "publish plugin failed", "publish_instance_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, hintFor(err)),
					logging.String(logging.FieldImpact, "instance not published"),
				)
			}
			track()
		}
	}
	return r.finish(report, pctx, states, seen), nil
}

func (r *Runner) runOne(ctx context.Context, plugin Plugin, pctx *Context, inst *Instance) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: plugin panicked: %v", services.ErrExternalTool, rec)
		}
	}()
	switch p := plugin.(type) {
	case InstanceCollector:
		return p.CollectInstance(ctx, pctx, inst)
	case Validator:
		return p.Validate(ctx, pctx, inst)
	case Extractor:
		return p.Extract(ctx, pctx, inst)
	case Integrator:
		return p.Integrate(ctx, pctx, inst)
	}
	return nil
}

func (r *Runner) finish(report *Report, pctx *Context, states map[*Instance]*instanceState, seen []*Instance) *Report {
	current := pctx.Instances()
	for _, inst := range seen {
		st := states[inst]
		res := InstanceResult{
			Name:            inst.Name,
			ProductName:     inst.ProductName,
			Version:         inst.Version,
			Representations: len(inst.Representations),
		}
		switch {
		case st.failed:
			res.Status = StatusFailed
			res.Plugin = st.plugin
			res.err = st.err
			res.Error = st.err.Error()
			res.Outcome = services.Classify(st.err)
			res.Description = services.DescribeError(st.err)
		case !slices.Contains(current, inst):
			// replaced by a collector, e.g. expanded per layer
			continue
		case !inst.Active:
			res.Status = StatusSkipped
		default:
			res.Status = StatusPublished
		}
		report.Results = append(report.Results, res)
	}
	report.Finished = time.Now()
	r.logger.Info("publish finished",
		logging.Int("published", report.Published()),
		logging.Int("failed", report.Failed()),
		logging.Duration("elapsed", report.Finished.Sub(report.Started)),
		logging.String(logging.FieldEventType, "publish_finished"),
	)
	return report
}

func matchesFamilies(plugin Plugin, inst *Instance) bool {
	filter, ok := plugin.(FamilyFilter)
	if !ok {
		return true
	}
	families := filter.Families()
	if len(families) == 0 {
		return true
	}
	return slices.ContainsFunc(families, inst.HasFamily)
}

func hintFor(err error) string {
	var pe *services.PublishError
	if errors.As(err, &pe) && pe.Hint != "" {
		return pe.Hint
	}
	switch services.Classify(err) {
	case services.OutcomeUserError:
		return "fix the instance settings and publish again"
	case services.OutcomeFatal:
		return "run the publish on a supported platform"
	default:
		return "check the exporter and host logs"
	}
}
