package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recall/engine/internal/session"
)

var (
	sessionLimit  int
	sessionJSON   bool
	sessionResume bool
	sessionClear  bool
)

var sessionCmd = &cobra.Command{
	Use:   "session <learner>",
	Short: "Plan a review session ranked by urgency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		learnerID := args[0]

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

		planner := session.New(graph, states, session.Config{
			Weights: session.Weights{
				Due:   cfg.WeightDue,
				Need:  cfg.WeightNeed,
				Yield: cfg.WeightYield,
			},
			Eligible: session.DefaultConfig().Eligible,
		})

		if sessionClear {
			if err := planner.ClearResume(learnerID); err != nil {
				return err
			}
			logger.Info("saved session cleared", "learner", learnerID)
			return nil
		}

		if sessionResume {
			nodeIDs, err := planner.LoadResume(learnerID)
			if err != nil {
				return err
			}
			if len(nodeIDs) == 0 {
				fmt.Println("no saved session")
				return nil
			}
			if sessionJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(nodeIDs)
			}
			for _, id := range nodeIDs {
				fmt.Println(id)
			}
			return nil
		}

		limit := sessionLimit
		if limit <= 0 {
			limit = cfg.SessionLimit
		}
		items, err := planner.PlanSession(learnerID, limit)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("nothing due")
			return nil
		}
		if err := planner.SaveResume(learnerID, items); err != nil {
			logger.Warn("could not save session for resume", "err", err)
		}

		if sessionJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		for i, item := range items {
			fmt.Printf("%3d. %-40s %-14s energy=%.2f priority=%.3f\n",
				i+1, item.NodeID, item.Kind, item.Energy, item.Priority)
		}
		return nil
	},
}

func init() {
	sessionCmd.Flags().IntVar(&sessionLimit, "limit", 0, "Maximum session size (default from config)")
	sessionCmd.Flags().BoolVar(&sessionJSON, "json", false, "Output as JSON")
	sessionCmd.Flags().BoolVar(&sessionResume, "resume", false, "Print the previously saved session instead of planning")
	sessionCmd.Flags().BoolVar(&sessionClear, "clear", false, "Discard the previously saved session")
	rootCmd.AddCommand(sessionCmd)
}
