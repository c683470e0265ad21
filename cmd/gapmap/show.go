package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/gapmap/internal/duckdb"
	"github.com/inodb/gapmap/internal/output"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <transcript>",
		Short:   "Show stored mappings of a transcript",
		Example: `  gapmap show NM_000014.6`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0])
		},
	}

	cmd.Flags().String("db", "", "DuckDB database path (default: ~/.gapmap/gapmap.duckdb)")

	return cmd
}

func runShow(cmd *cobra.Command, transcriptID string) error {
	store, err := duckdb.Open(dbPath())
	if err != nil {
		return err
	}
	defer store.Close()

	found, err := store.FindMappings(transcriptID)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return fmt.Errorf("no mappings stored for %s", transcriptID)
	}

	tw := output.NewTabWriter(cmd.OutOrStdout())
	for _, sm := range found {
		logger.Debug("stored mapping",
			zap.Int64("id", sm.ID),
			zap.Int64("map_count", sm.MapCount),
			zap.String("sequence", sm.Mapping.SequenceID))
		if err := tw.WriteMapping(sm.Mapping); err != nil {
			return err
		}
	}
	return tw.Flush()
}
