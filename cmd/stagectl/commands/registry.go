package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/signalstage/core/node"
	"github.com/signalstage/core/nodes"
	"github.com/signalstage/core/runtime"
)

var RegistryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect the built-in node kind catalog",
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered node type, grouped by category",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}

		byCategory := map[string][]*node.Definition{}
		var categories []string
		for _, def := range reg.List() {
			if _, seen := byCategory[def.Category]; !seen {
				categories = append(categories, def.Category)
			}
			byCategory[def.Category] = append(byCategory[def.Category], def)
		}

		for _, cat := range categories {
			pterm.DefaultSection.Println(cat)
			rows := [][]string{{"Type", "Label", "Inputs", "Outputs"}}
			for _, def := range byCategory[cat] {
				rows = append(rows, []string{
					def.Type, def.Label,
					fmt.Sprintf("%d", len(def.Inputs)),
					fmt.Sprintf("%d", len(def.Outputs)),
				})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
				return err
			}
		}
		return nil
	},
}

var registryGetCmd = &cobra.Command{
	Use:   "get TYPE",
	Short: "Show the full port and config schema for one node type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := buildRegistry()
		if err != nil {
			return err
		}
		def, ok := reg.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown node type %q", args[0])
		}

		pterm.DefaultSection.Printf("%s (%s)", def.Type, def.Category)
		fmt.Printf("Label: %s\n\n", def.Label)

		if len(def.Inputs) > 0 {
			rows := [][]string{{"Port", "Label", "Type", "Kind"}}
			for _, p := range def.Inputs {
				rows = append(rows, []string{p.ID, p.Label, string(p.Type), string(p.Kind)})
			}
			fmt.Println("Inputs:")
			_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		}
		if len(def.Outputs) > 0 {
			rows := [][]string{{"Port", "Label", "Type", "Kind"}}
			for _, p := range def.Outputs {
				rows = append(rows, []string{p.ID, p.Label, string(p.Type), string(p.Kind)})
			}
			fmt.Println("Outputs:")
			_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		}
		if len(def.Config) > 0 {
			rows := [][]string{{"Key", "Type", "Default"}}
			for _, c := range def.Config {
				rows = append(rows, []string{c.Key, string(c.Type), c.Default.AsString()})
			}
			fmt.Println("Config:")
			_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		}
		return nil
	},
}

func init() {
	RegistryCmd.AddCommand(registryListCmd)
	RegistryCmd.AddCommand(registryGetCmd)
}

// buildRegistry registers the full built-in catalog against a NopHost — used
// by commands that only need to describe or compile a graph, never run it
// against a real transport.
func buildRegistry() (*node.Registry, error) {
	return buildRegistryWithHost(runtime.NopHost{})
}

// buildRegistryWithHost registers the full built-in catalog against host, so
// selection/processor node kinds can reach its client/dispatch accessors.
func buildRegistryWithHost(host runtime.Host) (*node.Registry, error) {
	reg := node.NewRegistry()
	if err := nodes.RegisterAll(reg, host); err != nil {
		return nil, fmt.Errorf("failed to register node catalog: %w", err)
	}
	return reg, nil
}
