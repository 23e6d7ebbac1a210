package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/soyeahso/chemkit/internal/toolkit"
	"github.com/spf13/cobra"
)

var (
	heavyRule = strings.Repeat("=", 70)
	lightRule = strings.Repeat("-", 70)
)

// demoSMILES is aspirin.
const demoSMILES = "CC(=O)Oc1ccccc1C(=O)O"

const demoAgentQuery = "What is the CAS number for acetylsalicylic acid (aspirin)?"

// demoStep is one direct toolkit call of the basic demo.
type demoStep struct {
	title  string
	label  string // what the input is
	input  string
	result string // result label
	call   func(*toolkit.Toolkit, context.Context, string) (string, error)
}

func demoSteps(molecule string) []demoStep {
	return []demoStep{
		{"Get CAS number from molecule name", "Query", molecule, "Result CAS", (*toolkit.Toolkit).QueryMoleculeCAS},
		{"Convert molecule name to SMILES", "Query", molecule, "SMILES", (*toolkit.Toolkit).ConvertNameToSMILES},
		{"Convert SMILES to molecule name", "SMILES", demoSMILES, "Name", (*toolkit.Toolkit).ConvertSMILESToName},
		{"Get molecular weight from SMILES", "SMILES", demoSMILES, "Molecular Weight", (*toolkit.Toolkit).GetMolecularWeight},
		{"Identify functional groups", "SMILES", demoSMILES, "Functional Groups", (*toolkit.Toolkit).GetFunctionalGroups},
		{"Check patent information", "SMILES", demoSMILES, "Patent Info", (*toolkit.Toolkit).CheckPatent},
		{"Check if molecule is explosive", "SMILES", demoSMILES, "Explosive Status", (*toolkit.Toolkit).CheckExplosive},
		{"Check controlled chemical status", "SMILES", demoSMILES, "Controlled Status", (*toolkit.Toolkit).CheckControlledChemical},
	}
}

func newDemoCmd() *cobra.Command {
	var (
		molecule  string
		agentMode bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the toolkit demo: eight direct tool calls on aspirin",
		Long: `Run the toolkit demo: eight direct tool calls on aspirin.

With --agent the configured agent answers a sample query and then takes
questions interactively. Without an agent definition the basic demo runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentMode {
				return runAgentDemoCmd(cmd, molecule)
			}
			return runBasicDemoCmd(cmd.Context(), cmd.OutOrStdout(), molecule)
		},
	}

	cmd.Flags().StringVar(&molecule, "molecule", "aspirin", "molecule name for the name-based examples")
	cmd.Flags().BoolVar(&agentMode, "agent", false, "ask the configured agent instead of calling tools directly")
	return cmd
}

func runBasicDemoCmd(ctx context.Context, out io.Writer, molecule string) error {
	fmt.Fprintf(out, "\n%s\nQuery2CAS Toolkit - Basic Demo\n%s\n", heavyRule, heavyRule)

	kit, err := toolkit.NewFromMap(map[string]any{
		toolkit.KeyTemperature: toolkit.DefaultTemperature,
		toolkit.KeyLLMModel:    llm.DefaultModel,
	}, nil, toolkit.WithLogger(log))
	if err != nil {
		fmt.Fprintf(out, "\nError: %v\n", err)
		fmt.Fprintln(out, "Set OPENAI_API_KEY (or use --env-file) and try again.")
		return err
	}
	fmt.Fprintln(out, "\nToolkit initialized")

	if err := runDemo(ctx, out, kit, molecule); err != nil {
		fmt.Fprintf(out, "\nError: %v\n", err)
		return err
	}

	fmt.Fprintf(out, "\n%s\nDemo completed successfully!\n%s\n\n", heavyRule, heavyRule)
	return nil
}

func runAgentDemoCmd(cmd *cobra.Command, molecule string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s\nQuery2CAS via Agent - Interactive Demo\n%s\n", heavyRule, heavyRule)

	a, err := newAssistant("")
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "\nAgent config '%s' not found. Running the basic demo instead.\n", agentName(""))
		return runBasicDemoCmd(cmd.Context(), out, molecule)
	}
	if err != nil {
		printInitFailure(out, agentName(""), err)
		return err
	}
	defer a.Close()

	fmt.Fprintf(out, "\nAgent initialized: %s\n", a.name)
	fmt.Fprintln(out, "This agent includes all ChemCrow tools including Query2CAS")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.end(context.WithoutCancel(ctx))

	return agentDemo(ctx, cmd.InOrStdin(), out, a.asker(uuid.NewString(), cmd.ErrOrStderr()))
}

// agentDemo answers the sample query, then hands over to the chat loop.
func agentDemo(ctx context.Context, in io.Reader, out io.Writer, ask askFunc) error {
	fmt.Fprintf(out, "\nSample Query: %s\n%s\n", demoAgentQuery, lightRule)
	if err := ask(ctx, demoAgentQuery, out); err != nil {
		fmt.Fprintf(out, "\nError: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "\n%s\n\nQuery completed! You can now ask your own questions.\n", lightRule)
	fmt.Fprintln(out, "   Type 'exit' to quit.")
	fmt.Fprintln(out)
	return chatLoop(ctx, in, out, ask)
}

// runDemo stops at the first failing step.
func runDemo(ctx context.Context, out io.Writer, kit *toolkit.Toolkit, molecule string) error {
	for i, s := range demoSteps(molecule) {
		fmt.Fprintf(out, "\n%s\nExample %d: %s\n%s\n", lightRule, i+1, s.title, lightRule)
		fmt.Fprintf(out, "%s: %s\n", s.label, s.input)
		res, err := s.call(kit, ctx, s.input)
		if err != nil {
			return fmt.Errorf("example %d (%s): %w", i+1, s.title, err)
		}
		fmt.Fprintf(out, "%s: %s\n", s.result, res)
	}
	return nil
}
