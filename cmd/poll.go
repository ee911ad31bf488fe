package cmd

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/postmeet/pkg/poller"
)

// Poll command flags.
var pollLoop bool

// NewPollCommand builds the poll command.
func NewPollCommand() *cobra.Command {
	pollCmd := &cobra.Command{
		Use:   "poll",
		Short: "Poll outstanding bots",
		Long: `Run the bot polling cycle against meetings with outstanding bots.

By default one cycle runs and the command exits, which suits cron-style
invocation. With --loop the polling scheduler runs until interrupted.

Examples:
  postmeet poll
  postmeet poll --loop
  postmeet poll -o json`,
		RunE: runPoll,
	}
	pollCmd.Flags().BoolVar(&pollLoop, "loop", false, "keep polling on the configured interval until interrupted")
	return pollCmd
}

func runPoll(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, meetingStore, err := connectStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	client, err := newRecallClient(cfg, logger)
	if err != nil {
		return err
	}

	reconciler := poller.NewReconciler(meetingStore, client, nil, logger)
	batcher, err := poller.NewBatcher(meetingStore, reconciler, poller.BatchConfig{
		MaxAttempts: cfg.Polling.MaxPollAttempts,
		BatchSize:   cfg.Polling.BatchSize,
		ItemDelay:   cfg.Polling.ItemDelay(),
	}, logger, nil)
	if err != nil {
		return err
	}

	if pollLoop {
		scheduler := poller.NewScheduler(batcher, nil, cfg.Polling.Interval(), logger, nil)
		scheduler.Start(ctx)
		<-ctx.Done()
		scheduler.Stop()
		return nil
	}

	result, err := batcher.RunCycle(ctx)
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), cfg.OutputFormat, result, func(w io.Writer) {
		fmt.Fprintf(w, "Polled %d meeting(s): %d completed, %d failed, %d errors (%s)\n",
			result.Selected, result.Completed, result.Failed, result.Errors, result.Duration.Round(0))
	})
}
