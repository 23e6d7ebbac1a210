package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/soyeahso/chemkit/internal/domain"
	"github.com/soyeahso/chemkit/internal/llm"
	"github.com/spf13/cobra"
)

// exampleQueries are run by chat --examples.
var exampleQueries = []string{
	"What is the CAS number for aspirin?",
	"Convert glucose to SMILES notation",
	"What's the molecular weight of caffeine?",
}

// exitWords end the interactive loop.
var exitWords = map[string]bool{"exit": true, "quit": true, "q": true}

const welcome = `Available Chemistry Tools:
  * Molecular Conversion: name <-> SMILES <-> CAS number
  * Property Analysis: molecular weight, functional groups, similarity
  * Safety Checking: explosive check, controlled chemical detection
  * Literature Search: scholarly paper search and analysis
  * Patent Information: patent status and IP investigation
  * Reaction Planning: synthesis prediction and retrosynthesis

Example Queries:
  - What is the CAS number for aspirin?
  - Convert ethanol to SMILES
  - What's the molecular weight of caffeine?
  - Is this molecule controlled? (with SMILES)
  - Find synthesis routes for acetylsalicylic acid

Type 'exit', 'quit', or 'q' to quit`

// askFunc answers one query, writing the streamed answer to out.
type askFunc func(ctx context.Context, query string, out io.Writer) error

func newChatCmd() *cobra.Command {
	var (
		agentFlag string
		examples  bool
		chatID    string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chemistry assistant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s\nChemCrow Agent - Interactive Chemistry Assistant\n%s\n\n%s\n%s\n\n",
				heavyRule, heavyRule, welcome, heavyRule)

			a, err := newAssistant(agentFlag)
			if err != nil {
				printInitFailure(out, agentName(agentFlag), err)
				return err
			}
			defer a.Close()

			fmt.Fprintf(out, "Agent initialized: %s\n", a.name)
			printLoadedTools(out, a.runner.Tools().Names())

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if chatID == "" {
				chatID = uuid.NewString()
			}
			ask := a.asker(chatID, cmd.ErrOrStderr())

			defer a.end(context.WithoutCancel(ctx))

			if examples {
				runExamples(ctx, out, exampleQueries, ask)
				return nil
			}
			return chatLoop(ctx, cmd.InOrStdin(), out, ask)
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent definition under <configDir>/agents (default simple/chemcrow)")
	cmd.Flags().BoolVar(&examples, "examples", false, "run the built-in example queries instead of reading input")
	cmd.Flags().StringVar(&chatID, "session", "", "resume the conversation with this ID (default: a new one)")
	return cmd
}

// asker runs a query through the agent, streaming answer text to out and
// tool activity to status.
func (a *assistant) asker(chatID string, status io.Writer) askFunc {
	return func(ctx context.Context, query string, out io.Writer) error {
		msg := domain.InboundMessage{
			ID:        uuid.NewString(),
			Source:    "cli",
			From:      "user",
			FromName:  "User",
			ChatID:    chatID,
			Body:      query,
			Timestamp: time.Now(),
		}
		res, err := a.runner.RunStream(ctx, msg, func(evt llm.StreamEvent) {
			switch evt.Type {
			case "delta":
				fmt.Fprint(out, evt.Content)
			case "tool_start", "tool_result", "tool_error":
				fmt.Fprintf(status, "[%s] %s\n", evt.Type, evt.Content)
			}
		})
		if err != nil {
			return err
		}
		a.sessionID = res.SessionID
		log.Debug().
			Str("session", res.SessionID).
			Int("toolCalls", len(res.ToolCalls)).
			Int("inputTokens", res.Usage.InputTokens).
			Int("outputTokens", res.Usage.OutputTokens).
			Dur("duration", res.Duration).
			Msg("turn complete")
		return nil
	}
}

// chatLoop reads queries line by line until an exit word, EOF or
// cancellation. Errors of a single turn are reported and the loop goes on.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, ask askFunc) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "Query (or 'q' to quit): ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		query := strings.TrimSpace(sc.Text())

		if exitWords[strings.ToLower(query)] {
			fmt.Fprintln(out, "\nThank you for using ChemCrow Agent!")
			return nil
		}
		if query == "" {
			fmt.Fprintln(out, "Please enter a query")
			continue
		}

		fmt.Fprintf(out, "\nProcessing your query...\n%s\n", lightRule)
		err := ask(ctx, query, out)
		if ctx.Err() != nil {
			fmt.Fprintln(out, "\n\nInterrupted by user")
			return nil
		}
		if err != nil {
			fmt.Fprintf(out, "\nError during query: %v\n", err)
			fmt.Fprintln(out, "   Please try again with a different query")
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", lightRule)
	}
}

// runExamples runs each query in turn, reporting failures without stopping.
func runExamples(ctx context.Context, out io.Writer, queries []string, ask askFunc) {
	for i, q := range queries {
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(out, "\nExample %d: %s\n%s\n", i+1, q, lightRule)
		if err := ask(ctx, q, out); err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", lightRule)
	}
}

func printLoadedTools(out io.Writer, names []string) {
	fmt.Fprintln(out, "Loaded tools:")
	shown := min(len(names), 5)
	for _, n := range names[:shown] {
		fmt.Fprintf(out, "   - %s\n", n)
	}
	if len(names) > shown {
		fmt.Fprintf(out, "   ... and %d more tools\n", len(names)-shown)
	}
	fmt.Fprintln(out)
}

func printInitFailure(out io.Writer, name string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(out, "Error: could not find agent configuration '%s'\n", name)
		fmt.Fprintf(out, "   Make sure the config file exists: %s/agents/%s.yaml\n", cfg.ConfigDir, name)
		return
	}
	fmt.Fprintf(out, "Error initializing agent: %v\n", err)
	fmt.Fprintln(out, "\nTroubleshooting:")
	fmt.Fprintln(out, "  1. Check that OPENAI_API_KEY is set: echo $OPENAI_API_KEY")
	fmt.Fprintln(out, "  2. Check the agent's model and toolkit settings: chemkit status")
	fmt.Fprintf(out, "  3. Check configuration files in %s/agents/\n", cfg.ConfigDir)
}
