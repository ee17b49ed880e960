package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"photoshuttle/internal/artifact"
	"photoshuttle/internal/config"
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiBlue  = "\x1b[34m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *artifact.Store) error {
				progress, err := store.Progress(cmd.Context())
				if err != nil {
					return fmt.Errorf("read progress: %w", err)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				title := fmt.Sprintf("Migration progress (%d artifacts)", progress.Total)
				if colorize {
					title = ansiBlue + title + ansiReset
				}
				fmt.Fprintln(out, title)

				rows := []table.Row{
					{"downloaded", progress.Downloaded},
					{"uploaded", progress.Uploaded},
					{"appended", progress.Appended},
					{"completed", progress.Completed},
				}
				fmt.Fprintln(out, renderTable(table.Row{"STAGE REACHED", "COUNT"}, rows, 2))

				fmt.Fprintf(out, "Database: %s\n", store.Path())
				fmt.Fprintf(out, "Storage:  %s\n", cfg.StorageDir)
				if progress.Total > 0 && progress.Completed == progress.Total {
					done := "All artifacts migrated"
					if colorize {
						done = ansiGreen + done + ansiReset
					}
					fmt.Fprintln(out, done)
				}
				return nil
			})
		},
	}
}
