package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mochapipe/internal/logging"
	"mochapipe/internal/services"
)

type recorder struct {
	calls []string
}

func (r *recorder) add(call string) { r.calls = append(r.calls, call) }

type fakePlugin struct {
	name     string
	order    float64
	families []string
	rec      *recorder
	failOn   string
	run      func(pctx *Context, inst *Instance) error
}

func (p *fakePlugin) Name() string       { return p.name }
func (p *fakePlugin) Order() float64     { return p.order }
func (p *fakePlugin) Families() []string { return p.families }

func (p *fakePlugin) handle(pctx *Context, inst *Instance) error {
	p.rec.add(p.name + ":" + inst.Name)
	if p.run != nil {
		return p.run(pctx, inst)
	}
	if p.failOn == inst.Name {
		return services.NewValidationError("broken "+inst.Name, "### Issue\nbroken")
	}
	return nil
}

type fakeValidator struct{ fakePlugin }

func (p *fakeValidator) Validate(_ context.Context, pctx *Context, inst *Instance) error {
	return p.handle(pctx, inst)
}

type fakeExtractor struct{ fakePlugin }

func (p *fakeExtractor) Extract(_ context.Context, pctx *Context, inst *Instance) error {
	return p.handle(pctx, inst)
}

type fakeCollector struct{ fakePlugin }

func (p *fakeCollector) CollectInstance(_ context.Context, pctx *Context, inst *Instance) error {
	return p.handle(pctx, inst)
}

type fakeContextCollector struct {
	fakePlugin
	err error
}

func (p *fakeContextCollector) CollectContext(_ context.Context, pctx *Context) error {
	p.rec.add(p.name)
	return p.err
}

func newContext(names ...string) *Context {
	pctx := &Context{}
	for _, name := range names {
		pctx.AddInstance(&Instance{Name: name, ProductName: name, ProductType: "trackpoints", Active: true})
	}
	return pctx
}

func mustRegister(t *testing.T, reg *Registry, plugins ...Plugin) {
	t.Helper()
	for _, p := range plugins {
		if err := reg.RegisterPlugin(p); err != nil {
			t.Fatalf("RegisterPlugin(%s): %v", p.Name(), err)
		}
	}
}

func TestRunnerOrdersPluginsAcrossInstances(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	mustRegister(t, reg,
		&fakeExtractor{fakePlugin{name: "extract", order: ExtractorOrder, rec: rec}},
		&fakeValidator{fakePlugin{name: "validate", order: ValidatorOrder, rec: rec}},
		&fakeContextCollector{fakePlugin: fakePlugin{name: "project", order: CollectorOrder - 0.5, rec: rec}},
	)

	report, err := NewRunner(reg, logging.NewNop()).Publish(context.Background(), newContext("a", "b"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := []string{"project", "validate:a", "validate:b", "extract:a", "extract:b"}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	if report.Published() != 2 || report.Failed() != 0 {
		t.Fatalf("report = %+v", report.Results)
	}
	if report.Err() != nil {
		t.Fatalf("report.Err() = %v", report.Err())
	}
}

func TestRunnerIsolatesInstanceFailures(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	mustRegister(t, reg,
		&fakeValidator{fakePlugin{name: "validate", order: ValidatorOrder, rec: rec, failOn: "a"}},
		&fakeExtractor{fakePlugin{name: "extract", order: ExtractorOrder, rec: rec}},
	)

	report, err := NewRunner(reg, logging.NewNop()).Publish(context.Background(), newContext("a", "b"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := []string{"validate:a", "validate:b", "extract:b"}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	if len(report.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(report.Results))
	}
	failed := report.Results[0]
	if failed.Status != StatusFailed || failed.Plugin != "validate" {
		t.Fatalf("failed result = %+v", failed)
	}
	if failed.Outcome != services.OutcomeUserError {
		t.Fatalf("outcome = %q", failed.Outcome)
	}
	if !strings.HasPrefix(failed.Description, "### Issue") {
		t.Fatalf("description = %q", failed.Description)
	}
	if !errors.Is(failed.Err(), services.ErrValidation) {
		t.Fatalf("Err() = %v", failed.Err())
	}
	if report.Results[1].Status != StatusPublished {
		t.Fatalf("second result = %+v", report.Results[1])
	}
	if !errors.Is(report.Err(), services.ErrValidation) {
		t.Fatalf("report.Err() = %v", report.Err())
	}
}

func TestRunnerFamilyFilterAndInactive(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	mustRegister(t, reg,
		&fakeValidator{fakePlugin{name: "shapes-only", order: ValidatorOrder, rec: rec, families: []string{"matteshapes"}}},
		&fakeExtractor{fakePlugin{name: "all", order: ExtractorOrder, rec: rec, families: []string{"*"}}},
	)
	pctx := newContext("a")
	pctx.AddInstance(&Instance{Name: "off", ProductType: "trackpoints", Active: false})
	shape := &Instance{Name: "s", ProductType: "matteshapes", Active: true}
	pctx.AddInstance(shape)

	report, err := NewRunner(reg, logging.NewNop()).Publish(context.Background(), pctx)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := []string{"shapes-only:s", "all:a", "all:s"}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	if got := report.Results[1].Status; got != StatusSkipped {
		t.Fatalf("inactive status = %q", got)
	}
}

func TestRunnerCollectorExpandsInstances(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	expand := &fakeCollector{fakePlugin{name: "expand", order: CollectorOrder, rec: rec}}
	expand.run = func(pctx *Context, inst *Instance) error {
		for _, suffix := range []string{"1", "2"} {
			child := inst.Clone()
			child.Name = inst.Name + suffix
			child.Data = map[string]any{"expanded": true}
			pctx.AddInstance(child)
		}
		pctx.RemoveInstance(inst)
		return nil
	}
	skipExpanded := func(pctx *Context, inst *Instance) error {
		if inst.Data["expanded"] == true {
			return nil
		}
		return errors.New("unexpanded instance reached extractor")
	}
	mustRegister(t, reg,
		expand,
		&fakeExtractor{fakePlugin{name: "extract", order: ExtractorOrder, rec: rec, run: skipExpanded}},
	)

	report, err := NewRunner(reg, logging.NewNop()).Publish(context.Background(), newContext("a"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	want := []string{"expand:a", "extract:a1", "extract:a2"}
	if strings.Join(rec.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	if len(report.Results) != 2 || report.Published() != 2 {
		t.Fatalf("results = %+v", report.Results)
	}
	if report.Results[0].Name != "a1" || report.Results[1].Name != "a2" {
		t.Fatalf("result names = %s, %s", report.Results[0].Name, report.Results[1].Name)
	}
}

func TestRunnerAbortsOnContextCollectorFailure(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	mustRegister(t, reg,
		&fakeContextCollector{
			fakePlugin: fakePlugin{name: "host", order: CollectorOrder - 0.45, rec: rec},
			err:        services.ErrUnsupported,
		},
		&fakeValidator{fakePlugin{name: "validate", order: ValidatorOrder, rec: rec}},
	)

	report, err := NewRunner(reg, logging.NewNop()).Publish(context.Background(), newContext("a"))
	if !errors.Is(err, services.ErrUnsupported) {
		t.Fatalf("Publish error = %v, want ErrUnsupported", err)
	}
	if strings.Join(rec.calls, ",") != "host" {
		t.Fatalf("calls = %v", rec.calls)
	}
	if report.Failed() != 1 || report.Results[0].Outcome != services.OutcomeFatal {
		t.Fatalf("results = %+v", report.Results)
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	boom := &fakeExtractor{fakePlugin{name: "boom", order: ExtractorOrder, rec: rec}}
	boom.run = func(*Context, *Instance) error { panic("exporter crashed") }
	mustRegister(t, reg, boom)

	report, err := NewRunner(reg, logging.NewNop()).Publish(context.Background(), newContext("a"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if report.Failed() != 1 || !errors.Is(report.Results[0].Err(), services.ErrExternalTool) {
		t.Fatalf("results = %+v", report.Results)
	}
}

func TestRunnerStopsWhenCancelled(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	mustRegister(t, reg, &fakeValidator{fakePlugin{name: "validate", order: ValidatorOrder, rec: rec}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(reg, logging.NewNop()).Publish(ctx, newContext("a"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish error = %v, want context.Canceled", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("calls = %v", rec.calls)
	}
}

type bare struct{}

func (bare) Name() string   { return "bare" }
func (bare) Order() float64 { return 0 }

func TestRegistryRejectsDuplicatesAndBarePlugins(t *testing.T) {
	reg := NewRegistry()
	v := &fakeValidator{fakePlugin{name: "validate", rec: &recorder{}}}
	if err := reg.RegisterPlugin(v); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := reg.RegisterPlugin(v); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterPlugin(bare{}); err == nil {
		t.Fatal("expected error for plugin without capability")
	}
}

func TestRegistryPluginsStableByOrder(t *testing.T) {
	reg := NewRegistry()
	rec := &recorder{}
	mustRegister(t, reg,
		&fakeValidator{fakePlugin{name: "v2", order: ValidatorOrder, rec: rec}},
		&fakeValidator{fakePlugin{name: "v1", order: ValidatorOrder, rec: rec}},
		&fakeCollector{fakePlugin{name: "c", order: CollectorOrder - 0.4, rec: rec}},
	)
	var names []string
	for _, p := range reg.Plugins() {
		names = append(names, p.Name())
	}
	if got := strings.Join(names, ","); got != "c,v2,v1" {
		t.Fatalf("plugins = %s", got)
	}
}

type runIDExtractor struct {
	fakePlugin
	seen []string
}

func (p *runIDExtractor) Extract(ctx context.Context, _ *Context, _ *Instance) error {
	id, _ := services.RequestIDFromContext(ctx)
	p.seen = append(p.seen, id)
	return nil
}

func TestRunnerTagsRunID(t *testing.T) {
	extractor := &runIDExtractor{fakePlugin: fakePlugin{name: "extract", order: ExtractorOrder}}
	reg := NewRegistry()
	mustRegister(t, reg, extractor)
	runner := NewRunner(reg, logging.NewNop())

	report, err := runner.Publish(context.Background(), newContext("a", "b"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("expected generated run id")
	}
	for _, id := range extractor.seen {
		if id != report.RunID {
			t.Fatalf("plugin saw run id %q, report has %q", id, report.RunID)
		}
	}

	extractor.seen = nil
	ctx := services.WithRequestID(context.Background(), "farm-job-17")
	report, err = runner.Publish(ctx, newContext("a"))
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if report.RunID != "farm-job-17" || len(extractor.seen) != 1 || extractor.seen[0] != "farm-job-17" {
		t.Fatalf("expected caller run id to propagate, report %q, seen %v", report.RunID, extractor.seen)
	}
}
