// Package report implements the command that generates the XLSX report
// from ingested data.
package report

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/datastore"
	"github.com/soundfield/capture-report/internal/report"
)

// Command creates the report subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the analysis workbook from ingested data",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no database output enabled in configuration")
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			gen := report.NewGenerator(settings, store)
			if err := gen.Run(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Report written to %s (run %s)\n", settings.Output.Report.Path, gen.RunID())
			return nil
		},
	}
	return cmd
}
