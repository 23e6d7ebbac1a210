package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/soyeahso/chemkit/internal/config"
	"github.com/soyeahso/chemkit/internal/store"
	"github.com/soyeahso/chemkit/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var agentFlag string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show chemkit status and configuration summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "chemkit %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:  %s\n", paths.Config)
			fmt.Fprintf(out, "Data:    %s\n", paths.Data)
			fmt.Fprintf(out, "Logs:    %s\n", paths.Logs)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Session: store=%s\n", cfg.Session.Store)
			if cfg.Session.Store == "sqlite" {
				fmt.Fprintf(out, "DB:      %s%s\n", paths.Database(), dbSummary(paths.Database()))
			}

			name := agentName(agentFlag)
			ac, err := config.LoadAgentConfig(cfg.ConfigDir, name)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				fmt.Fprintf(out, "Agent:   %s (not found in %s)\n", name, cfg.ConfigDir)
			case err != nil:
				fmt.Fprintf(out, "Agent:   error loading %s: %v\n", name, err)
			default:
				model := ac.Model.Model
				if model == "" {
					model = "(toolkit default)"
				}
				fmt.Fprintf(out, "Agent:   %s name=%s model=%s\n", name, ac.Agent.Name, model)
			}

			kit, err := loadToolkit(agentFlag)
			if err != nil {
				fmt.Fprintf(out, "Toolkit: unavailable: %v\n", err)
			} else {
				enabled := 0
				for _, c := range kit.Capabilities() {
					if c.Enabled {
						enabled++
					}
				}
				fmt.Fprintf(out, "Toolkit: %s mode=%s model=%s tools=%d/%d enabled\n",
					kit.Name(), kit.Mode(), kit.Options().LLMModel, enabled, len(kit.Capabilities()))

				masked := kit.Credentials().Masked()
				keys := make([]string, 0, len(masked))
				for k := range masked {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				fmt.Fprintln(out, "\nCredentials:")
				for _, k := range keys {
					fmt.Fprintf(out, "  %-26s %s\n", k, masked[k])
				}
			}

			issues := config.Validate(&cfg)
			if ac != nil {
				issues = append(issues, config.ValidateAgent(ac)...)
			}
			if len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&agentFlag, "agent", "", "agent definition to inspect (default from config)")
	return cmd
}

// dbSummary describes an existing database without creating one.
func dbSummary(path string) string {
	if _, err := os.Stat(path); err != nil {
		return " (not created yet)"
	}
	db, err := store.Open(path, log)
	if err != nil {
		return fmt.Sprintf(" (error: %v)", err)
	}
	defer db.Close()
	st, err := db.Stats()
	if err != nil {
		return fmt.Sprintf(" (error: %v)", err)
	}
	return fmt.Sprintf(" (sessions=%d messages=%d invocations=%d)", st.Sessions, st.Messages, st.Invocations)
}
