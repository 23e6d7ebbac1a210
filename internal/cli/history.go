package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/soyeahso/chemkit/internal/domain"
	"github.com/soyeahso/chemkit/internal/store"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit     int
		tool      string
		search    string
		session   string
		olderThan time.Duration
		asJSON    bool
		sessions  bool
		deleteID  string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent tool invocations and chat sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Session.Store != "sqlite" {
				return fmt.Errorf("history needs session.store=sqlite (current: %s)", cfg.Session.Store)
			}
			h, err := openHistory()
			if err != nil {
				return err
			}
			defer h.Close()

			out := cmd.OutOrStdout()
			ss := store.NewSQLiteSessionStore(h.db)

			if deleteID != "" {
				if ss.Get(deleteID) == nil {
					return fmt.Errorf("no session %s", deleteID)
				}
				if err := ss.Delete(deleteID); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted session %s\n", deleteID)
				return nil
			}

			if sessions {
				var list []*domain.Session
				for _, id := range ss.List() {
					if sess := ss.Get(id); sess != nil {
						list = append(list, sess)
					}
				}
				if limit > 0 && len(list) > limit {
					list = list[:limit]
				}
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(list)
				}
				printSessions(out, list)
				return nil
			}

			if olderThan > 0 {
				n, err := h.log.Prune(time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Pruned %d invocation(s)\n", n)
				return nil
			}

			var invs []store.Invocation
			switch {
			case search != "":
				invs, err = h.log.Search(search, limit)
			case tool != "":
				invs, err = h.log.ByTool(tool, limit)
			case session != "":
				invs, err = h.log.ForSession(session)
			default:
				invs, err = h.log.Recent(limit)
			}
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(invs)
			}
			printInvocations(out, invs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of invocations")
	cmd.Flags().StringVar(&tool, "tool", "", "only invocations of this tool")
	cmd.Flags().StringVar(&search, "search", "", "full-text search over inputs and outputs")
	cmd.Flags().StringVar(&session, "session", "", "only invocations of this session ID")
	cmd.Flags().DurationVar(&olderThan, "prune", 0, "delete invocations older than this duration instead of listing")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	cmd.Flags().BoolVar(&sessions, "sessions", false, "list chat sessions instead of invocations")
	cmd.Flags().StringVar(&deleteID, "delete-session", "", "delete the chat session with this ID and its messages")
	return cmd
}

func printInvocations(w io.Writer, invs []store.Invocation) {
	if len(invs) == 0 {
		fmt.Fprintln(w, "No tool invocations recorded.")
		return
	}
	for _, inv := range invs {
		fmt.Fprintf(w, "%s  %-34s %8s  %s\n",
			inv.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			inv.Tool,
			inv.Duration.Round(time.Millisecond),
			truncate(inv.Input, 60))
		if inv.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", truncate(inv.Error, 100))
		} else {
			fmt.Fprintf(w, "    -> %s\n", truncate(inv.Output, 100))
		}
	}
}

func printSessions(w io.Writer, list []*domain.Session) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}
	for _, sess := range list {
		fmt.Fprintf(w, "%s  %s  %-20s messages=%d\n",
			sess.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			sess.ID,
			sess.AgentID,
			len(sess.Messages))
	}
}

// truncate shortens s to n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
