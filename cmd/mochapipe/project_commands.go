package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mochapipe/internal/config"
	"mochapipe/internal/host"
)

func newProjectCommand(ctx *commandContext) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Create and inspect project files",
	}

	projectCmd.AddCommand(newProjectInitCommand(ctx))
	projectCmd.AddCommand(newProjectInfoCommand(ctx))

	return projectCmd
}

func newProjectInitCommand(ctx *commandContext) *cobra.Command {
	var clipPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Create a project file",
		Long: `Create a project file at <path>.

With --clip the project tracks the given footage. Without it the configured
placeholder clip is copied next to the project so it has something to track.
The session context from the configuration is stored in the project.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("project already exists at %s (use --overwrite to replace it)", target)
				}
			}

			var project *host.Project
			if clip := strings.TrimSpace(clipPath); clip != "" {
				clip, err = config.ExpandPath(clip)
				if err != nil {
					return err
				}
				width, height, err := host.ProbeFrameSize(clip, ctx.log())
				if err != nil {
					return err
				}
				project = host.NewProject(host.Clip{Path: clip, Width: width, Height: height})
			} else {
				workio := host.NewWorkio(cfg.PlaceholderClip(), ctx.log())
				if err := workio.SaveFile(target); err != nil {
					return err
				}
				project = workio.Current()
			}

			store := ctx.store()
			if err := store.SetContext(project, map[string]any{
				"project":    cfg.Session.Project,
				"folderPath": cfg.Session.FolderPath,
				"task":       cfg.Session.Task,
			}); err != nil {
				return err
			}
			if err := project.SaveAs(target); err != nil {
				return err
			}

			if ctx.structured() {
				return ctx.writeStructured(cmd, map[string]any{"path": project.Path()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s\n", project.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&clipPath, "clip", "", "Footage the project tracks")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing project")
	return cmd
}

type projectInfo struct {
	Path          string         `json:"path" yaml:"path"`
	TrackableClip string         `json:"trackable_clip,omitempty" yaml:"trackable_clip,omitempty"`
	Clips         []host.Clip    `json:"clips" yaml:"clips"`
	OutputClips   []host.Clip    `json:"output_clips" yaml:"output_clips"`
	Views         []host.View    `json:"views" yaml:"views"`
	Layers        []layerRow     `json:"layers" yaml:"layers"`
	Instances     int            `json:"instances" yaml:"instances"`
	Containers    int            `json:"containers" yaml:"containers"`
	Context       map[string]any `json:"context" yaml:"context"`
}

type layerRow struct {
	Index    int    `json:"index" yaml:"index"`
	Name     string `json:"name" yaml:"name"`
	InPoint  int    `json:"in_point" yaml:"in_point"`
	OutPoint int    `json:"out_point" yaml:"out_point"`
	Keys     int    `json:"keys" yaml:"keys"`
	Shapes   int    `json:"shapes" yaml:"shapes"`
}

func layerRows(project *host.Project) []layerRow {
	layers := project.Layers()
	rows := make([]layerRow, 0, len(layers))
	for idx, layer := range layers {
		rows = append(rows, layerRow{
			Index:    idx,
			Name:     layer.Name,
			InPoint:  layer.InPoint,
			OutPoint: layer.OutPoint,
			Keys:     len(layer.Track),
			Shapes:   len(layer.Shapes),
		})
	}
	return rows
}

func newProjectInfoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show clips, layers and pipeline records of the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ctx.openProject()
			if err != nil {
				return err
			}
			store := ctx.store()
			instances, err := store.PublishInstances(project)
			if err != nil {
				return err
			}
			containers, err := store.Containers(project)
			if err != nil {
				return err
			}
			sessionCtx, err := store.Context(project)
			if err != nil {
				return err
			}

			info := projectInfo{
				Path:        project.Path(),
				Clips:       project.Clips(),
				OutputClips: project.OutputClips(),
				Views:       project.Views(),
				Layers:      layerRows(project),
				Instances:   len(instances),
				Containers:  len(containers),
				Context:     sessionCtx,
			}
			if clip, ok := project.DefaultTrackableClip(); ok {
				info.TrackableClip = clip.Name
			}
			if ctx.structured() {
				return ctx.writeStructured(cmd, info)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Project:        %s\n", info.Path)
			fmt.Fprintf(out, "Trackable clip: %s\n", valueOrDash(info.TrackableClip))
			fmt.Fprintf(out, "Clips:          %d (%d output)\n", len(info.Clips), len(info.OutputClips))
			fmt.Fprintf(out, "Instances:      %d\n", info.Instances)
			fmt.Fprintf(out, "Containers:     %d\n", info.Containers)
			if folder, ok := sessionCtx["folderPath"].(string); ok {
				fmt.Fprintf(out, "Folder:         %s\n", folder)
			}
			if len(info.Layers) == 0 {
				fmt.Fprintln(out, "\nNo layers")
				return nil
			}
			fmt.Fprintln(out)
			fmt.Fprint(out, renderLayers(out, info.Layers))
			return nil
		},
	}
}

func newLayersCommand(ctx *commandContext) *cobra.Command {
	layersCmd := &cobra.Command{
		Use:   "layers",
		Short: "Manage tracked layers",
	}

	layersCmd.AddCommand(newLayersListCommand(ctx))
	layersCmd.AddCommand(newLayersAddCommand(ctx))

	return layersCmd
}

func newLayersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List layers",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ctx.openProject()
			if err != nil {
				return err
			}
			rows := layerRows(project)
			if ctx.structured() {
				return ctx.writeStructured(cmd, rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No layers")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderLayers(cmd.OutOrStdout(), rows))
			return nil
		},
	}
}

func newLayersAddCommand(ctx *commandContext) *cobra.Command {
	var inPoint, outPoint int

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a layer spanning --in to --out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(func(project *host.Project) error {
				idx, err := project.AddLayer(host.Layer{Name: args[0], InPoint: inPoint, OutPoint: outPoint})
				if err != nil {
					return err
				}
				if ctx.structured() {
					return ctx.writeStructured(cmd, map[string]any{"index": idx, "name": strings.TrimSpace(args[0])})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added layer %d: %s [%d-%d]\n", idx, strings.TrimSpace(args[0]), inPoint, outPoint)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&inPoint, "in", 1, "First frame of the layer")
	cmd.Flags().IntVar(&outPoint, "out", 1, "Last frame of the layer")
	return cmd
}

func renderLayers(out io.Writer, rows []layerRow) string {
	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, []string{
			strconv.Itoa(row.Index),
			row.Name,
			fmt.Sprintf("%d-%d", row.InPoint, row.OutPoint),
			strconv.Itoa(row.Keys),
			strconv.Itoa(row.Shapes),
		})
	}
	return renderTable(out,
		[]string{"#", "Layer", "Range", "Keys", "Shapes"},
		table,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
	)
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
