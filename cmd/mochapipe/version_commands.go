package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mochapipe/internal/registry"
)

func newVersionsCommand(ctx *commandContext) *cobra.Command {
	versionsCmd := &cobra.Command{
		Use:   "versions",
		Short: "Inspect published versions",
	}

	versionsCmd.AddCommand(newVersionsListCommand(ctx))
	versionsCmd.AddCommand(newVersionsShowCommand(ctx))

	return versionsCmd
}

func newVersionsListCommand(ctx *commandContext) *cobra.Command {
	var filter registry.VersionFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List published versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRegistry(func(store *registry.Store) error {
				versions, err := store.Versions(cmd.Context(), filter)
				if err != nil {
					return err
				}
				if ctx.structured() {
					if versions == nil {
						versions = []registry.Version{}
					}
					return ctx.writeStructured(cmd, versions)
				}
				out := cmd.OutOrStdout()
				if len(versions) == 0 {
					fmt.Fprintln(out, "No versions published")
					return nil
				}
				rows := make([][]string, 0, len(versions))
				for _, v := range versions {
					rows = append(rows, []string{
						strconv.FormatInt(v.ID, 10),
						v.FolderPath,
						v.ProductName,
						v.Label(),
						valueOrDash(v.Task),
						v.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprint(out, renderTable(out,
					[]string{"ID", "Folder", "Product", "Version", "Task", "Created"},
					rows,
					[]columnAlignment{alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.FolderPath, "folder", "", "Only versions of this folder path")
	cmd.Flags().StringVar(&filter.ProductName, "product", "", "Only versions of this product")
	return cmd
}

func newVersionsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show representations and files of a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid version id %q", args[0])
			}
			return ctx.withRegistry(func(store *registry.Store) error {
				version, err := store.GetVersion(cmd.Context(), id)
				if err != nil {
					return err
				}
				reps, err := store.Representations(cmd.Context(), id)
				if err != nil {
					return err
				}
				transfers, err := store.Transfers(cmd.Context(), id)
				if err != nil {
					return err
				}
				if ctx.structured() {
					return ctx.writeStructured(cmd, map[string]any{
						"version":         version,
						"representations": reps,
						"transfers":       transfers,
					})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s (%s)\n", version.ProductName, version.Label(), version.FolderPath)
				fmt.Fprintf(out, "Directory: %s\n", version.Dir)
				fmt.Fprintf(out, "Source:    %s\n\n", valueOrDash(version.SourceFile))
				rows := make([][]string, 0, len(reps))
				for _, rep := range reps {
					rows = append(rows, []string{rep.Name, rep.Ext, strconv.Itoa(len(rep.Files)), yesNo(rep.Sequence)})
				}
				fmt.Fprint(out, renderTable(out,
					[]string{"Representation", "Ext", "Files", "Sequence"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				fmt.Fprintf(out, "\n%d files transferred\n", len(transfers))
				return nil
			})
		},
	}
}
