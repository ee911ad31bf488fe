package cmd

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/postmeet/pkg/meeting"
)

const statusActivityLimit = 10

// statusReport is the machine-readable status output.
type statusReport struct {
	StatusCounts   map[string]int    `json:"status_counts" yaml:"status_counts"`
	RecentActivity []meeting.Meeting `json:"recent_activity" yaml:"recent_activity"`
}

// NewStatusCommand builds the status command.
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show polling status",
		Long: `Show per-status meeting counts and the most recently polled meetings.

Examples:
  postmeet status
  postmeet status -o json`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pool, meetingStore, err := connectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	counts, err := meetingStore.StatusCounts(ctx)
	if err != nil {
		return err
	}
	recent, err := meetingStore.RecentActivity(ctx, statusActivityLimit)
	if err != nil {
		return err
	}

	report := statusReport{StatusCounts: counts, RecentActivity: recent}
	return printOutput(cmd.OutOrStdout(), cfg.OutputFormat, report, func(w io.Writer) {
		printStatusText(w, report)
	})
}

func printStatusText(w io.Writer, report statusReport) {
	if len(report.StatusCounts) == 0 {
		fmt.Fprintln(w, "No meetings with bots.")
		return
	}

	fmt.Fprintln(w, "Meetings by bot status:")
	statuses := make([]string, 0, len(report.StatusCounts))
	for status := range report.StatusCounts {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		fmt.Fprintf(w, "  %-20s %d\n", status, report.StatusCounts[status])
	}

	if len(report.RecentActivity) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRecent activity:")
	for _, m := range report.RecentActivity {
		status := "pending"
		if m.BotStatus != nil {
			status = string(*m.BotStatus)
		}
		polled := "never"
		if m.LastPolledAt != nil {
			polled = m.LastPolledAt.Format(time.RFC3339)
		}
		title := m.Title
		if title == "" {
			title = m.ID
		}
		fmt.Fprintf(w, "  %-30s %-18s attempts=%-3d polled=%s\n", title, status, m.PollAttempts, polled)
		if m.LastError != nil {
			fmt.Fprintf(w, "    last error: %s\n", *m.LastError)
		}
	}
}
