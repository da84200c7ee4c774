package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/signalstage/core/diffgraph"
	"github.com/signalstage/core/internal/loader"
)

var DiffCmd = &cobra.Command{
	Use:   "diff OLD NEW",
	Short: "Show the structural changes between two graph snapshots",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		prev, err := loader.Load(args[0], format)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		next, err := loader.Load(args[1], format)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", args[1], err)
		}

		changes := diffgraph.Diff(prev, next)
		if len(changes) == 0 {
			pterm.Success.Println("no structural differences")
			return nil
		}

		for _, c := range changes {
			fmt.Println(describeChange(c))
		}
		pterm.Info.Printf("%d change(s)\n", len(changes))
		return nil
	},
}

func init() {
	DiffCmd.Flags().String("format", "", "force the snapshot format (json|yaml); inferred from the path extension if omitted")
}

func describeChange(c diffgraph.Change) string {
	switch c.Kind {
	case diffgraph.AddNode:
		return fmt.Sprintf("%s %s (%s) at (%.0f,%.0f)", pterm.Green("+ node"), c.NodeID, c.Type, c.Position.X, c.Position.Y)
	case diffgraph.RemoveNode:
		return fmt.Sprintf("%s %s", pterm.Red("- node"), c.NodeID)
	case diffgraph.UpdateNodeType:
		return fmt.Sprintf("%s %s -> %s", pterm.Yellow("~ type"), c.NodeID, c.Type)
	case diffgraph.UpdateNodePosition:
		return fmt.Sprintf("%s %s -> (%.0f,%.0f)", pterm.Yellow("~ position"), c.NodeID, c.Position.X, c.Position.Y)
	case diffgraph.UpdateNodeConfig:
		return fmt.Sprintf("%s %s (%d field(s))", pterm.Yellow("~ config"), c.NodeID, len(c.Config))
	case diffgraph.AddConnection:
		return fmt.Sprintf("%s %s.%s -> %s.%s", pterm.Green("+ conn"),
			c.Connection.SourceNodeID, c.Connection.SourcePortID, c.Connection.TargetNodeID, c.Connection.TargetPortID)
	case diffgraph.RemoveConnection:
		return fmt.Sprintf("%s %s.%s -> %s.%s", pterm.Red("- conn"),
			c.Connection.SourceNodeID, c.Connection.SourcePortID, c.Connection.TargetNodeID, c.Connection.TargetPortID)
	default:
		return string(c.Kind)
	}
}
