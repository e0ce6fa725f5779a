package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"mochapipe/internal/exporter"
	"mochapipe/internal/host"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/plugins"
)

func newInstancesCommand(ctx *commandContext) *cobra.Command {
	instancesCmd := &cobra.Command{
		Use:     "instances",
		Aliases: []string{"instance"},
		Short:   "Manage publish instances stored in the project",
	}

	instancesCmd.AddCommand(newInstancesListCommand(ctx))
	instancesCmd.AddCommand(newInstancesCreateCommand(ctx))
	instancesCmd.AddCommand(newInstancesRemoveCommand(ctx))

	return instancesCmd
}

func newInstancesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List publish instances",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ctx.openProject()
			if err != nil {
				return err
			}
			instances, err := ctx.store().PublishInstances(project)
			if err != nil {
				return err
			}
			if ctx.structured() {
				if instances == nil {
					instances = []metastore.Instance{}
				}
				return ctx.writeStructured(cmd, instances)
			}
			out := cmd.OutOrStdout()
			if len(instances) == 0 {
				fmt.Fprintln(out, "No instances")
				return nil
			}
			rows := make([][]string, 0, len(instances))
			for _, inst := range instances {
				rows = append(rows, []string{
					shortID(inst.ID),
					inst.ProductName,
					inst.ProductType,
					inst.FolderPath,
					inst.Task,
					yesNo(inst.IsActive()),
				})
			}
			fmt.Fprint(out, renderTable(out,
				[]string{"ID", "Product", "Type", "Folder", "Task", "Active"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newInstancesCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		layers               []int
		exporters            []string
		allLayers            bool
		invert               bool
		removeLensDistortion bool
		frameTime            float64
	)

	cmd := &cobra.Command{
		Use:   "create <creator> [variant]",
		Short: "Create a publish instance",
		Long: `Create a publish instance with the given creator.

<creator> is a creator identifier or product type: trackpoints, matteshapes
or workfile. Exporters are chosen by label, short name or id prefix; without
--exporter the configured defaults are used.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := ""
			if len(args) > 1 {
				variant = args[1]
			}
			reg, err := ctx.pluginRegistry(nil)
			if err != nil {
				return err
			}
			creator, err := findCreator(reg, args[0])
			if err != nil {
				return err
			}

			return ctx.withProject(func(project *host.Project) error {
				cc, err := ctx.createContext(project)
				if err != nil {
					return err
				}
				attrs := map[string]any{}
				if cmd.Flags().Changed("layer") {
					values := make([]any, 0, len(layers))
					for _, idx := range layers {
						values = append(values, idx)
					}
					attrs[plugins.AttrLayers] = values
				}
				if allLayers {
					attrs[plugins.AttrLayerMode] = plugins.LayerModeAll
				}
				if pc, ok := creator.(*plugins.ProductCreator); ok {
					if len(exporters) > 0 {
						ids, err := resolveExporters(cc.Exporters, pc.Kind(), cc.HostVersion, exporters)
						if err != nil {
							return err
						}
						attrs[plugins.AttrExporter] = ids
					}
					if pc.Kind() == exporter.KindTracking {
						attrs[plugins.AttrInvert] = invert
						attrs[plugins.AttrRemoveLensDistortion] = removeLensDistortion
						attrs[plugins.AttrFrameTime] = frameTime
					}
				}

				inst, err := creator.Create(cc, variant, attrs)
				if err != nil {
					return err
				}
				if ctx.structured() {
					return ctx.writeStructured(cmd, inst)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", inst.ProductName, inst.ID)
				return nil
			})
		},
	}

	cmd.Flags().IntSliceVar(&layers, "layer", nil, "Layer index to publish (repeatable)")
	cmd.Flags().StringSliceVar(&exporters, "exporter", nil, "Exporter label, short name or id prefix (repeatable)")
	cmd.Flags().BoolVar(&allLayers, "all-layers", false, "Publish every layer of the project")
	cmd.Flags().BoolVar(&invert, "invert", false, "Invert the exported tracking data")
	cmd.Flags().BoolVar(&removeLensDistortion, "remove-lens-distortion", false, "Remove lens distortion from the exported tracking data")
	cmd.Flags().Float64Var(&frameTime, "frame-time", 0, "Frame time offset of the exported tracking data")
	return cmd
}

func newInstancesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a publish instance by id or id prefix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := ctx.pluginRegistry(nil)
			if err != nil {
				return err
			}
			return ctx.withProject(func(project *host.Project) error {
				instances, err := ctx.store().PublishInstances(project)
				if err != nil {
					return err
				}
				inst, err := findInstance(instances, args[0])
				if err != nil {
					return err
				}
				cc, err := ctx.createContext(project)
				if err != nil {
					return err
				}
				if creator, ok := reg.Creator(inst.CreatorIdentifier); ok {
					err = creator.Remove(cc, []string{inst.ID})
				} else {
					err = cc.Store.RemovePublishInstance(project, inst.ID)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s (%s)\n", inst.ProductName, inst.ID)
				return nil
			})
		},
	}
}

var creatorAliases = map[string]string{
	plugins.ProductTypeTrackPoints: plugins.TrackPointsCreatorID,
	plugins.ProductTypeMatteShapes: plugins.ShapeDataCreatorID,
	plugins.ProductTypeWorkfile:    plugins.WorkfileCreatorID,
}

func findCreator(reg *pipeline.Registry, name string) (pipeline.Creator, error) {
	name = strings.TrimSpace(name)
	if id, ok := creatorAliases[strings.ToLower(name)]; ok {
		name = id
	}
	if creator, ok := reg.Creator(name); ok {
		return creator, nil
	}
	var known []string
	for _, c := range reg.Creators() {
		known = append(known, c.ProductType())
	}
	return nil, fmt.Errorf("unknown or disabled creator %q (available: %s)", name, strings.Join(known, ", "))
}

func findInstance(instances []metastore.Instance, id string) (metastore.Instance, error) {
	id = strings.TrimSpace(id)
	var matches []metastore.Instance
	for _, inst := range instances {
		if inst.ID == id {
			return inst, nil
		}
		if id != "" && strings.HasPrefix(inst.ID, id) {
			matches = append(matches, inst)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return metastore.Instance{}, fmt.Errorf("no instance matches %q", id)
	default:
		return metastore.Instance{}, fmt.Errorf("%q matches %d instances; use more of the id", id, len(matches))
	}
}

// resolveExporters maps user-facing exporter names to ids.
func resolveExporters(reg *exporter.Registry, kind exporter.Kind, version string, names []string) ([]any, error) {
	infos := reg.List(kind)
	var ids []any
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		idx := slices.IndexFunc(infos, func(info exporter.Info) bool {
			return strings.EqualFold(info.Label, name) ||
				info.ShortName(version) == name ||
				(len(name) >= exporter.ShortIDLength && strings.HasPrefix(info.ID, strings.ToLower(name)))
		})
		if idx < 0 {
			return nil, fmt.Errorf("unknown %s exporter %q; see `mochapipe exporters list`", kind, name)
		}
		ids = append(ids, infos[idx].ID)
	}
	return ids, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
