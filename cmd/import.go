package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recall/engine/internal/graphstore"
	"recall/engine/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <snapshot.jsonl>",
	Short: "Load a text snapshot into the graph store",
	Long: `Reads a JSON Lines snapshot of nodes and edges and inserts it into the
graph database. Imports are idempotent: records already present are
skipped, so re-running with a superset snapshot only adds the new rows.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := openGraphStore()
		if err != nil {
			return err
		}
		defer graph.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening snapshot: %w", err)
		}
		defer f.Close()

		stats, err := importer.New(graph).Import(cmd.Context(), f)
		if err != nil {
			var integrity *graphstore.IntegrityError
			if errors.As(err, &integrity) {
				return fmt.Errorf("snapshot rejected, nothing imported: %w", err)
			}
			return err
		}

		logger.Info("import complete",
			"nodes", stats.NodesImported,
			"edges", stats.EdgesImported,
			"db", graph.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
