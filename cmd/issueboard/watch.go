package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"issueboard/internal/config"
	"issueboard/internal/debug"
	"issueboard/internal/domain"
	"issueboard/internal/optimistic"
	"issueboard/internal/store"
	"issueboard/internal/telemetry"
)

var watchOnce bool

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("118"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sync loop without a UI and print each reconcile",
	Long: `Run the poll loop and synthetic writer headlessly. Every change to the local
board is printed as one summary line; --once prints the ranked board after a
single fetch and exits.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Fetch once, print the ranked board and exit")
}

// lineWriter serialises output from the poll, commit and store goroutines.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format+"\n", args...)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := telemetry.Init(ctx, config.GetBool(config.KeyTelemetryEnabled), "issueboard", Version); err != nil {
		return err
	}
	defer telemetry.Shutdown(context.WithoutCancel(ctx))

	client, closeRemote, err := openRemote(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRemote(); err != nil {
			debug.Logf("close remote: %v", err)
		}
	}()

	out := &lineWriter{w: cmd.OutOrStdout()}
	c, err := buildCore(ctx, client, hooks{
		committed: func(m optimistic.Mutation, _ domain.Issue) {
			out.printf("%s %s: %s", okStyle.Render("committed"), m.ID, m.Patch)
		},
		rolledBack: func(m optimistic.Mutation, err error) {
			out.printf("%s %s: %v", errStyle.Render("rolled back"), m.ID, err)
		},
		pollFailed: func(err error) {
			out.printf("%s %v", errStyle.Render("sync failed:"), err)
		},
	})
	if err != nil {
		return err
	}
	defer c.stop()

	if watchOnce {
		if _, err := c.refresher.Refresh(ctx); err != nil {
			return err
		}
		return printBoard(cmd.OutOrStdout(), c.board.Issues())
	}

	changes, unsubscribe := c.board.Subscribe()
	defer unsubscribe()

	c.initialLoad(ctx, func(err error) {
		out.printf("%s %v", errStyle.Render("initial load failed:"), err)
	})
	out.printf("%s", summarize(c.board))
	c.poller.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case change, ok := <-changes:
				if !ok {
					return nil
				}
				if change.Reason == store.ChangeReconciled || change.Reason == store.ChangePending {
					out.printf("%s", summarize(c.board))
				}
			}
		}
	})
	if c.writer != nil {
		g.Go(func() error { return ignoreCanceled(c.writer.Run(gctx)) })
	}
	return g.Wait()
}

func summarize(board *store.Store) string {
	issues := board.Issues()
	counts := statusCounts(issues)
	parts := make([]string, 0, len(domain.Statuses))
	for _, status := range domain.Statuses {
		parts = append(parts, fmt.Sprintf("%s %d", status, counts[status]))
	}
	line := fmt.Sprintf("%d issues (%s)", len(issues), strings.Join(parts, ", "))
	if pending := len(board.Pending()); pending > 0 {
		line += fmt.Sprintf(", %d pending", pending)
	}
	if last := board.LastReconciled(); !last.IsZero() {
		line = mutedStyle.Render(last.Format("15:04:05")) + " " + line
	}
	return line
}

// printBoard writes the ranked board, one issue per row.
func printBoard(w io.Writer, issues []domain.Issue) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tID\tSTATUS\tPRIORITY\tSEV\tTITLE")
	for _, iss := range issues {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", iss.Score, iss.ID, iss.Status, iss.Priority, iss.Severity, iss.Title)
	}
	return tw.Flush()
}
