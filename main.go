// Package main provides the postmeet CLI entry point.
// postmeet records meetings with a notetaker bot, polls the bot service for
// call progress, and stores finished transcripts.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/postmeet/cmd"
)

// version is set at build time via -ldflags.
var version = "dev"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "postmeet",
	Short: "Meeting notetaker bot manager",
	Long: `postmeet dispatches recording bots into meetings, polls the bot
service for call progress, and stores finished transcripts.

COMMON WORKFLOWS:
  First run:        postmeet auth set-key  →  postmeet serve
  One-off polling:  postmeet poll
  Check progress:   postmeet status
  Debug a bot:      postmeet bot get <bot-id>  →  postmeet bot transcript <bot-id>

Run 'postmeet <command> --help' for flags and examples.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(c *cobra.Command, _ []string) {
		c.Printf("postmeet %s\n", version)
	},
}

func init() {
	cmd.RegisterGlobalFlags(rootCmd)
	rootCmd.AddCommand(
		cmd.NewServeCommand(),
		cmd.NewPollCommand(),
		cmd.NewStatusCommand(),
		cmd.NewAuthCommand(),
		cmd.NewBotCommand(),
		versionCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
