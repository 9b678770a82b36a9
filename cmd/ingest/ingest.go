// Package ingest implements the command that loads media file metadata
// into the datastore.
package ingest

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soundfield/capture-report/internal/conf"
	"github.com/soundfield/capture-report/internal/datastore"
	"github.com/soundfield/capture-report/internal/ingest"
)

// Command creates the ingest subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [directory]",
		Short: "Scan a directory of media files into the database",
		Long: "Walks the directory, extracts capture timestamps, enriches each file " +
			"with calendar attribution, flags outlier days, and replaces the " +
			"database contents.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := datastore.New(settings)
			if store == nil {
				return fmt.Errorf("no database output enabled in configuration")
			}
			if err := store.Open(); err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			count, err := ingest.New(settings, store).Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %d media files from %s\n", count, args[0])
			return nil
		},
	}
	return cmd
}
