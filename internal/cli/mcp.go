package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/soyeahso/chemkit/internal/agent"
	"github.com/soyeahso/chemkit/internal/hooks"
	"github.com/soyeahso/chemkit/internal/mcp"
	"github.com/soyeahso/chemkit/internal/version"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	var (
		agentFlag string
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the chemistry tools over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kit, err := loadToolkit(agentFlag)
			if err != nil {
				return err
			}
			reg := agent.NewToolRegistry()
			kit.Register(reg)

			var opts []mcp.Option
			if !noHistory && cfg.Session.Store == "sqlite" {
				h, err := openHistory()
				if err != nil {
					return err
				}
				defer h.Close()
				hm := hooks.NewManager(log)
				hm.On(hooks.EventToolCall, "invocation-log", h.log.HookHandler())
				opts = append(opts, mcp.WithHooks(hm))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := mcp.NewServer("chemkit", version.Version, reg, log, opts...)
			log.Info().Int("tools", reg.Len()).Msg("serving MCP on stdio")
			err = srv.Serve(ctx, cmd.InOrStdin(), os.Stdout)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent definition whose toolkit settings to use")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record tool invocations")
	return cmd
}

// ExecuteMCP runs the mcp command as the whole program, passing the
// process arguments through as its flags.
func ExecuteMCP() error {
	root := newRootCmd()
	root.SetArgs(append([]string{"mcp"}, os.Args[1:]...))
	return root.Execute()
}
