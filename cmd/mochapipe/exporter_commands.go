package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mochapipe/internal/exporter"
)

type exporterRow struct {
	ID             string        `json:"id" yaml:"id"`
	Label          string        `json:"label" yaml:"label"`
	Kind           exporter.Kind `json:"kind" yaml:"kind"`
	ShortName      string        `json:"short_name,omitempty" yaml:"short_name,omitempty"`
	Representation string        `json:"representation" yaml:"representation"`
}

func newExportersCommand(ctx *commandContext) *cobra.Command {
	exportersCmd := &cobra.Command{
		Use:   "exporters",
		Short: "Inspect available exporters",
	}

	exportersCmd.AddCommand(newExportersListCommand(ctx))

	return exportersCmd
}

func newExportersListCommand(ctx *commandContext) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List exporters and the representation names they publish as",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			filter := exporter.Kind(strings.ToLower(strings.TrimSpace(kind)))
			switch filter {
			case "", exporter.KindTracking, exporter.KindShape:
			default:
				return fmt.Errorf("unknown exporter kind %q (want %s or %s)", kind, exporter.KindTracking, exporter.KindShape)
			}
			reg, err := ctx.exporters()
			if err != nil {
				return err
			}

			version := cfg.Host.Version
			infos := reg.List(filter)
			rows := make([]exporterRow, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, exporterRow{
					ID:             info.ID,
					Label:          info.Label,
					Kind:           info.Kind,
					ShortName:      info.ShortName(version),
					Representation: exporter.RepresentationName(info.Kind, version, info.Label),
				})
			}
			if ctx.structured() {
				return ctx.writeStructured(cmd, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No exporters")
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{row.ID[:exporter.ShortIDLength], string(row.Kind), row.Label, row.Representation})
			}
			fmt.Fprintf(out, "Host version: %s\n\n", version)
			fmt.Fprint(out, renderTable(out, []string{"ID", "Kind", "Label", "Representation"}, table, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "", "Only list tracking or shape exporters")
	return cmd
}
