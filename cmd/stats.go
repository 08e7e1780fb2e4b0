package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"recall/engine/internal/diagnose"
	"recall/engine/internal/ids"
)

var (
	statsJSON    bool
	statsLearner string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report store contents, connectivity and cross-store drift",
	RunE: func(cmd *cobra.Command, args []string) error {
		graph, err := openGraphStore()
		if err != nil {
			return err
		}
		defer graph.Close()
		states, err := openLearnerStore()
		if err != nil {
			return err
		}
		defer states.Close()

		report, err := diagnose.Run(graph, states)
		if err != nil {
			return err
		}

		if statsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}

		fmt.Println("  NODES")
		kinds := make([]ids.NodeKind, 0, len(report.NodesByKind))
		for k := range report.NodesByKind {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		total := 0
		for _, k := range kinds {
			n := report.NodesByKind[k]
			total += n
			fmt.Printf("    %-14s %6d\n", k, n)
		}
		fmt.Printf("    %-14s %6d\n", "total", total)

		fmt.Println("\n  EDGES")
		for kind, n := range report.EdgesByKind {
			fmt.Printf("    %-14s %6d\n", kind, n)
		}

		fmt.Println("\n  CONNECTIVITY")
		fmt.Printf("    components: %d  largest: %d\n",
			report.Components, report.LargestComponent)
		if report.DanglingEdges > 0 {
			fmt.Printf("    dangling edges: %d (store modified outside import)\n",
				report.DanglingEdges)
		}
		if report.OrphanStates > 0 {
			fmt.Printf("    orphan learner states: %d\n", report.OrphanStates)
		}

		if statsLearner != "" {
			count, err := states.CountStates(statsLearner)
			if err != nil {
				return err
			}
			fmt.Printf("\n  LEARNER %s\n", statsLearner)
			fmt.Printf("    tracked nodes: %d\n", count)

			events, err := states.GetPropagationEvents(statsLearner, 5)
			if err != nil {
				return err
			}
			for _, ev := range events {
				at := time.UnixMilli(ev.CreatedAt).Format(time.RFC3339)
				fmt.Printf("    %s reviewed %s, energy flowed to %d node(s)\n",
					at, ev.SourceID, len(ev.Details))
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output as JSON")
	statsCmd.Flags().StringVar(&statsLearner, "learner", "", "Also report this learner's state and recent reviews")
	rootCmd.AddCommand(statsCmd)
}
