package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/soyeahso/chemkit/internal/agent"
	"github.com/soyeahso/chemkit/internal/toolkit"
	"github.com/spf13/cobra"
)

func newToolsCmd() *cobra.Command {
	var agentFlag string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List or call chemistry tools directly",
	}
	cmd.PersistentFlags().StringVar(&agentFlag, "agent", "", "agent definition whose toolkit settings to use")

	cmd.AddCommand(newToolsListCmd(&agentFlag))
	cmd.AddCommand(newToolsCallCmd(&agentFlag))
	return cmd
}

func newToolsListCmd(agentFlag *string) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show every tool and whether it is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := loadToolkit(*agentFlag)
			if err != nil {
				return err
			}
			caps := kit.Capabilities()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(caps)
			}
			printCapabilities(cmd.OutOrStdout(), caps)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newToolsCallCmd(agentFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "call <tool> <input> [input2]",
		Short: "Invoke one tool and print its result",
		Long:  "Invoke one tool. The input may be plain text or a JSON object; check_molecule_similarity takes two SMILES.",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := loadToolkit(*agentFlag)
			if err != nil {
				return err
			}
			reg := agent.NewToolRegistry()
			kit.Register(reg)

			tool, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown tool %q (available: %s)", args[0], strings.Join(reg.Names(), ", "))
			}
			out, err := tool.Execute(cmd.Context(), toolArgs(args[0], args[1:]))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

// toolArgs builds the JSON input for a tool from positional arguments.
func toolArgs(tool string, args []string) string {
	if len(args) == 1 && strings.HasPrefix(strings.TrimSpace(args[0]), "{") {
		return args[0]
	}
	var v map[string]string
	switch {
	case tool != toolkit.ToolCheckMoleculeSimilarity:
		v = map[string]string{"input": strings.Join(args, " ")}
	case len(args) == 2:
		v = map[string]string{"smiles1": args[0], "smiles2": args[1]}
	default:
		// "SMILES1 SMILES2" is split by the tool itself
		return args[0]
	}
	data, _ := json.Marshal(v)
	return string(data)
}

func printCapabilities(w io.Writer, caps []toolkit.CapabilityStatus) {
	width := 0
	for _, c := range caps {
		width = max(width, len(c.Name))
	}
	for _, c := range caps {
		state := "enabled"
		if !c.Enabled {
			state = "disabled"
		}
		fmt.Fprintf(w, "%-*s  %-8s", width, c.Name, state)
		if c.Reason != "" {
			fmt.Fprintf(w, "  %s", c.Reason)
		}
		fmt.Fprintln(w)
	}
}
