package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mochapipe/internal/host"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/plugins"
	"mochapipe/internal/preflight"
	"mochapipe/internal/registry"
)

// errPublishFailed signals a run where at least one instance failed. The
// per-instance report has already been printed.
var errPublishFailed = errors.New("publish finished with failures")

func newPublishCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publish",
		Short: "Collect, validate, extract and integrate every active instance",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.RunAll(cmd.Context(), cfg)); err != nil {
				return err
			}
			exporters, err := ctx.exporters()
			if err != nil {
				return err
			}
			return ctx.withRegistry(func(versions *registry.Store) error {
				reg, err := ctx.pluginRegistry(versions)
				if err != nil {
					return err
				}
				return ctx.withProject(func(project *host.Project) error {
					if err := autoCreate(ctx, reg, project); err != nil {
						return err
					}
					if project.Dirty() {
						if err := project.Save(); err != nil {
							return fmt.Errorf("save project: %w", err)
						}
					}

					runner := pipeline.NewRunner(reg, ctx.log())
					report, runErr := runner.Publish(cmd.Context(), plugins.NewPublishContext(cfg, project, exporters))
					if report != nil {
						if err := printReport(ctx, cmd, report); err != nil {
							return err
						}
					}
					if runErr != nil {
						return runErr
					}
					if report.Failed() > 0 {
						return errPublishFailed
					}
					return nil
				})
			})
		},
	}
}

// autoCreate lets auto creators refresh their instances before publishing.
func autoCreate(ctx *commandContext, reg *pipeline.Registry, project *host.Project) error {
	cc, err := ctx.createContext(project)
	if err != nil {
		return err
	}
	for _, creator := range reg.Creators() {
		auto, ok := creator.(pipeline.AutoCreator)
		if !ok {
			continue
		}
		if _, err := auto.AutoCreate(cc); err != nil {
			return fmt.Errorf("%s: %w", creator.Identifier(), err)
		}
	}
	return nil
}

func printReport(ctx *commandContext, cmd *cobra.Command, report *pipeline.Report) error {
	if ctx.structured() {
		return ctx.writeStructured(cmd, report)
	}
	out := cmd.OutOrStdout()
	if len(report.Results) == 0 {
		fmt.Fprintln(out, "Nothing to publish")
		return nil
	}
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		version := "-"
		if res.Status == pipeline.StatusPublished && res.Version > 0 {
			version = registry.VersionLabel(res.Version)
		}
		rows = append(rows, []string{
			res.ProductName,
			string(res.Status),
			version,
			strconv.Itoa(res.Representations),
			valueOrDash(res.Plugin),
		})
	}
	fmt.Fprint(out, renderTable(out,
		[]string{"Product", "Status", "Version", "Reps", "Failed in"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	for _, res := range report.Results {
		if res.Status != pipeline.StatusFailed {
			continue
		}
		fmt.Fprintf(out, "\n%s: %s\n", res.Name, res.Error)
		if desc := strings.TrimSpace(res.Description); desc != "" {
			fmt.Fprintln(out, desc)
		}
	}
	fmt.Fprintf(out, "\nPublished %d, failed %d in %s\n",
		report.Published(), report.Failed(), report.Finished.Sub(report.Started).Round(time.Millisecond))
	return nil
}
