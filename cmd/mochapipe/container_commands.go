package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mochapipe/internal/config"
	"mochapipe/internal/host"
	"mochapipe/internal/metastore"
	"mochapipe/internal/pipeline"
	"mochapipe/internal/plugins"
)

type loadFlags struct {
	name           string
	namespace      string
	representation string
	version        string
}

func (f *loadFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "Clip name (defaults to the file name)")
	}
	cmd.Flags().StringVar(&f.namespace, "namespace", "", "Container namespace")
	cmd.Flags().StringVar(&f.representation, "representation", "", "Representation id recorded on the container")
	cmd.Flags().StringVar(&f.version, "version", "", "Version label recorded on the container")
}

func (f *loadFlags) request(path string) (pipeline.LoadRequest, error) {
	expanded, err := config.ExpandPath(strings.TrimSpace(path))
	if err != nil {
		return pipeline.LoadRequest{}, err
	}
	return pipeline.LoadRequest{
		Path:             expanded,
		Name:             f.name,
		Namespace:        f.namespace,
		RepresentationID: f.representation,
		Version:          f.version,
	}, nil
}

func (c *commandContext) loadContext(project *host.Project) *pipeline.LoadContext {
	return &pipeline.LoadContext{Project: project, Store: c.store(), Logger: c.log()}
}

func newLoadCommand(ctx *commandContext) *cobra.Command {
	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Bring footage into the project",
	}

	loadCmd.AddCommand(newLoadSubcommand(ctx, "clip <file>", "Add footage as a new clip", plugins.LoadClipName, true))
	loadCmd.AddCommand(newLoadSubcommand(ctx, "trackable <file>", "Relink the trackable clip to new footage", plugins.LoadTrackableClipName, false))

	return loadCmd
}

func newLoadSubcommand(ctx *commandContext, use, short, loaderName string, withName bool) *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := ctx.loader(loaderName)
			if err != nil {
				return err
			}
			req, err := flags.request(args[0])
			if err != nil {
				return err
			}
			return ctx.withProject(func(project *host.Project) error {
				container, err := loader.Load(ctx.loadContext(project), req)
				if err != nil {
					return err
				}
				return printContainer(ctx, cmd, "Loaded", container)
			})
		},
	}

	flags.register(cmd, withName)
	return cmd
}

func newContainersCommand(ctx *commandContext) *cobra.Command {
	containersCmd := &cobra.Command{
		Use:   "containers",
		Short: "Manage loaded containers",
	}

	containersCmd.AddCommand(newContainersListCommand(ctx))
	containersCmd.AddCommand(newContainersUpdateCommand(ctx))
	containersCmd.AddCommand(newContainersRemoveCommand(ctx))

	return containersCmd
}

func newContainersListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List containers",
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := ctx.openProject()
			if err != nil {
				return err
			}
			containers, err := ctx.store().Containers(project)
			if err != nil {
				return err
			}
			if ctx.structured() {
				if containers == nil {
					containers = []metastore.Container{}
				}
				return ctx.writeStructured(cmd, containers)
			}
			out := cmd.OutOrStdout()
			if len(containers) == 0 {
				fmt.Fprintln(out, "No containers")
				return nil
			}
			rows := make([][]string, 0, len(containers))
			for _, c := range containers {
				rows = append(rows, []string{
					c.Name,
					valueOrDash(c.Namespace),
					c.Loader,
					valueOrDash(c.Version),
					valueOrDash(c.Representation),
				})
			}
			fmt.Fprint(out, renderTable(out,
				[]string{"Name", "Namespace", "Loader", "Version", "Representation"},
				rows,
				nil,
			))
			return nil
		},
	}
}

func newContainersUpdateCommand(ctx *commandContext) *cobra.Command {
	var flags loadFlags
	var switchRep bool

	cmd := &cobra.Command{
		Use:   "update <name> <file>",
		Short: "Point a container at new footage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[1])
			if err != nil {
				return err
			}
			return ctx.withProject(func(project *host.Project) error {
				container, loader, err := ctx.findContainer(project, args[0], flags.namespace)
				if err != nil {
					return err
				}
				lc := ctx.loadContext(project)
				if switchRep {
					container, err = loader.Switch(lc, container, req)
				} else {
					container, err = loader.Update(lc, container, req)
				}
				if err != nil {
					return err
				}
				return printContainer(ctx, cmd, "Updated", container)
			})
		},
	}

	flags.register(cmd, false)
	cmd.Flags().BoolVar(&switchRep, "switch", false, "Switch to another representation instead of a newer version")
	return cmd
}

func newContainersRemoveCommand(ctx *commandContext) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a container and its clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withProject(func(project *host.Project) error {
				container, loader, err := ctx.findContainer(project, args[0], namespace)
				if err != nil {
					return err
				}
				if err := loader.Remove(ctx.loadContext(project), container); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed container %s\n", container.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&namespace, "namespace", "", "Container namespace")
	return cmd
}

func (c *commandContext) loader(name string) (pipeline.Loader, error) {
	reg, err := c.pluginRegistry(nil)
	if err != nil {
		return nil, err
	}
	loader, ok := reg.Loader(name)
	if !ok {
		return nil, fmt.Errorf("loader %s is not registered", name)
	}
	return loader, nil
}

func (c *commandContext) findContainer(project *host.Project, name, namespace string) (metastore.Container, pipeline.Loader, error) {
	containers, err := c.store().Containers(project)
	if err != nil {
		return metastore.Container{}, nil, err
	}
	key := metastore.Container{Name: strings.TrimSpace(name), Namespace: namespace}
	for _, container := range containers {
		if !key.SameKey(container) {
			continue
		}
		loader, err := c.loader(container.Loader)
		if err != nil {
			return metastore.Container{}, nil, err
		}
		return container, loader, nil
	}
	return metastore.Container{}, nil, fmt.Errorf("no container named %q in namespace %q", key.Name, namespace)
}

func printContainer(ctx *commandContext, cmd *cobra.Command, verb string, container metastore.Container) error {
	if ctx.structured() {
		return ctx.writeStructured(cmd, container)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s via %s\n", verb, container.Name, container.Loader)
	return nil
}
