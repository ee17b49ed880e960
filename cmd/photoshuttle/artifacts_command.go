package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/config"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	var stageFlag string

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List tracked artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var stages []artifact.Stage
			if trimmed := strings.TrimSpace(stageFlag); trimmed != "" {
				stage, ok := artifact.ParseStage(trimmed)
				if !ok {
					return fmt.Errorf("unknown stage %q (valid: %s)", trimmed, stageNames())
				}
				stages = append(stages, stage)
			}

			return ctx.withStore(func(cfg *config.Config, store *artifact.Store) error {
				records, err := store.List(cmd.Context(), stages...)
				if err != nil {
					return fmt.Errorf("list artifacts: %w", err)
				}

				out := cmd.OutOrStdout()
				if len(records) == 0 {
					fmt.Fprintln(out, "No artifacts found")
					return nil
				}

				rows := make([]table.Row, 0, len(records))
				for _, record := range records {
					rows = append(rows, table.Row{
						record.RowID,
						record.Name,
						record.Size,
						string(record.Stage()),
						record.UpdatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				fmt.Fprintln(out, renderTable(table.Row{"ID", "NAME", "SIZE", "STAGE", "UPDATED"}, rows, 1, 3))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stageFlag, "stage", "", "Only show artifacts at the given stage")
	return cmd
}

func stageNames() string {
	names := make([]string, 0, len(artifact.AllStages()))
	for _, stage := range artifact.AllStages() {
		names = append(names, string(stage))
	}
	return strings.Join(names, ", ")
}
