package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"recall/engine/internal/graphstore"
	"recall/engine/internal/ids"
)

var contextJSON bool

type nodeContext struct {
	Node     *graphstore.Node  `json:"node"`
	Previous *graphstore.Node  `json:"previous,omitempty"`
	Next     *graphstore.Node  `json:"next,omitempty"`
	Edges    []graphstore.Edge `json:"edges"`
}

var contextCmd = &cobra.Command{
	Use:   "context <node-id>",
	Short: "Show a node's text neighbors and outgoing edges",
	Long: `For word instances the previous and next words in the text are derived
from id arithmetic, not stored edges. Outgoing edges carry the explicit
semantic relationships energy diffuses along.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nodeID := args[0]

		graph, err := openGraphStore()
		if err != nil {
			return err
		}
		defer graph.Close()

		node, err := graph.GetNode(nodeID)
		if err != nil {
			return err
		}
		if node == nil {
			return fmt.Errorf("node not found: %s", nodeID)
		}

		ctx := nodeContext{Node: node}
		if ids.Kind(nodeID) == ids.KindWordInstance {
			ctx.Previous, ctx.Next, err = graph.GetAdjacent(nodeID)
			if err != nil {
				return err
			}
		}
		ctx.Edges, err = graph.GetEdgesFrom(nodeID)
		if err != nil {
			return err
		}

		if contextJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(ctx)
		}

		fmt.Printf("  %s (%s)\n", node.ID, node.Kind)
		if ctx.Previous != nil {
			fmt.Printf("  prev: %s\n", ctx.Previous.ID)
		}
		if ctx.Next != nil {
			fmt.Printf("  next: %s\n", ctx.Next.ID)
		}
		if len(ctx.Edges) == 0 {
			fmt.Println("  no outgoing edges")
			return nil
		}
		fmt.Printf("  %d outgoing edge(s):\n", len(ctx.Edges))
		for _, e := range ctx.Edges {
			fmt.Printf("    -> %-30s %-10s %s\n", e.TargetID, e.Kind, e.Dist)
		}
		return nil
	},
}

func init() {
	contextCmd.Flags().BoolVar(&contextJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(contextCmd)
}
