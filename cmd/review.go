package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"recall/engine/internal/memorymodel"
	"recall/engine/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review <learner> <node-id> <grade>",
	Short: "Record a review and propagate energy to related nodes",
	Long: `Grades are again, hard, good, or easy (or 1-4). The reviewed node gets a
new due date and energy level, then energy diffuses one hop along the
node's outgoing edges.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		learnerID, nodeID := args[0], args[1]
		grade, err := memorymodel.ParseGrade(args[2])
		if err != nil {
			return err
		}

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

		params := memorymodel.DefaultParams()
		params.DesiredRetention = cfg.DesiredRetention
		model := memorymodel.NewFSRS(params)
		policy := review.EnergyPolicy{Gain: cfg.EnergyGain, Decay: cfg.EnergyDecay}
		orch := review.New(graph, states, model, policy, logger)

		result, err := orch.ProcessReview(cmd.Context(), learnerID, nodeID, grade)
		if err != nil {
			return err
		}

		fmt.Printf("reviewed %s as %s\n", nodeID, grade)
		fmt.Printf("  energy: %.3f\n", result.Energy)
		fmt.Printf("  due:    %s\n", result.NewDueAt.Format(time.RFC3339))
		if result.Propagated > 0 {
			fmt.Printf("  energy propagated to %d related node(s)\n", result.Propagated)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
