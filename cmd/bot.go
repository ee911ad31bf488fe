package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/postmeet/config"
	"github.com/otherjamesbrown/postmeet/pkg/recall"
	"github.com/otherjamesbrown/postmeet/pkg/transcript"
)

// Bot command flags.
var (
	botMeetingURL string
	botJoinAt     string
)

// NewBotCommand builds the bot command group for direct bot service access.
func NewBotCommand() *cobra.Command {
	botCmd := &cobra.Command{
		Use:   "bot",
		Short: "Work with recording bots directly",
		Long: `Work with recording bots on the bot service directly.

These commands bypass the meeting store and talk straight to the bot
service API. Useful for debugging a stuck bot or inspecting a transcript.`,
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Dispatch a bot to a meeting URL",
		Long: `Dispatch a recording bot to a meeting URL.

Examples:
  postmeet bot create --url https://meet.google.com/abc-defg-hij
  postmeet bot create --url https://zoom.us/j/123 --join-at 2026-09-01T15:00:00Z`,
		RunE: runBotCreate,
	}
	createCmd.Flags().StringVar(&botMeetingURL, "url", "", "meeting URL the bot should join")
	createCmd.Flags().StringVar(&botJoinAt, "join-at", "", "RFC 3339 time for a scheduled join (default: immediately)")
	createCmd.MarkFlagRequired("url") //nolint:errcheck

	getCmd := &cobra.Command{
		Use:   "get <bot-id>",
		Short: "Show a bot and its status history",
		Args:  cobra.ExactArgs(1),
		RunE:  runBotGet,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <bot-id>",
		Short: "Cancel a scheduled bot",
		Args:  cobra.ExactArgs(1),
		RunE:  runBotDelete,
	}

	transcriptCmd := &cobra.Command{
		Use:   "transcript <bot-id>",
		Short: "Fetch and format a bot's transcript",
		Args:  cobra.ExactArgs(1),
		RunE:  runBotTranscript,
	}

	botCmd.AddCommand(createCmd, getCmd, deleteCmd, transcriptCmd)
	return botCmd
}

func botClient() (*recall.Client, config.OutputFormat, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	client, err := newRecallClient(cfg, newLogger(cfg))
	if err != nil {
		return nil, "", err
	}
	return client, cfg.OutputFormat, nil
}

func runBotCreate(cmd *cobra.Command, _ []string) error {
	client, format, err := botClient()
	if err != nil {
		return err
	}

	req := recall.CreateBotRequest{MeetingURL: botMeetingURL}
	if botJoinAt != "" {
		joinAt, err := time.Parse(time.RFC3339, botJoinAt)
		if err != nil {
			return fmt.Errorf("parsing --join-at: %w", err)
		}
		req.JoinAt = &joinAt
	}

	bot, err := client.CreateBot(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), format, bot, func(w io.Writer) {
		fmt.Fprintf(w, "Bot %s dispatched to %s\n", bot.ID, botMeetingURL)
	})
}

func runBotGet(cmd *cobra.Command, args []string) error {
	client, format, err := botClient()
	if err != nil {
		return err
	}

	bot, err := client.GetBot(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printOutput(cmd.OutOrStdout(), format, bot, func(w io.Writer) {
		fmt.Fprintf(w, "Bot:     %s\n", bot.ID)
		fmt.Fprintf(w, "Meeting: %s\n", bot.MeetingURL)
		fmt.Fprintf(w, "Status:  %s\n", bot.LatestStatus())
		if bot.VideoURL != "" {
			fmt.Fprintf(w, "Video:   %s\n", bot.VideoURL)
		}
		if len(bot.StatusChanges) > 0 {
			fmt.Fprintln(w, "History:")
			for _, change := range bot.StatusChanges {
				fmt.Fprintf(w, "  %s  %s\n", change.CreatedAt.Format(time.RFC3339), change.Code)
			}
		}
	})
}

func runBotDelete(cmd *cobra.Command, args []string) error {
	client, _, err := botClient()
	if err != nil {
		return err
	}
	if err := client.DeleteBot(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Bot %s cancelled.\n", args[0])
	return nil
}

func runBotTranscript(cmd *cobra.Command, args []string) error {
	client, format, err := botClient()
	if err != nil {
		return err
	}

	segments, err := client.GetTranscript(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	text := transcript.Format(segments)
	if text == "" {
		cmd.Println("No transcript available.")
		return nil
	}
	return printOutput(cmd.OutOrStdout(), format, segments, func(w io.Writer) {
		fmt.Fprintln(w, text)
	})
}
