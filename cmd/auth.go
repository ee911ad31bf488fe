package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/otherjamesbrown/postmeet/credentials"
)

// Auth command flags.
var authAPIKey string

// NewAuthCommand builds the auth command group.
func NewAuthCommand() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the bot service API key",
		Long: `Manage the bot service API key.

The key is stored in the system keyring:
  - macOS: Keychain
  - Windows: Credential Manager
  - Linux: Secret Service (libsecret)

For CI and headless environments, set POSTMEET_RECALL_API_KEY instead.`,
	}

	setKeyCmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the bot service API key",
		Long: `Store the bot service API key in the system keyring.

Examples:
  # Interactive (prompts with hidden input)
  postmeet auth set-key

  # Non-interactive
  postmeet auth set-key --api-key rec_abc123...`,
		RunE: runAuthSetKey,
	}
	setKeyCmd.Flags().StringVar(&authAPIKey, "api-key", "", "API key to store (omit to be prompted)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether an API key is configured",
		RunE:  runAuthStatus,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		RunE:  runAuthClear,
	}

	authCmd.AddCommand(setKeyCmd, statusCmd, clearCmd)
	return authCmd
}

func runAuthSetKey(cmd *cobra.Command, _ []string) error {
	key := authAPIKey
	if key == "" {
		var err error
		key, err = promptForKey(cmd)
		if err != nil {
			return err
		}
	}

	if err := credentials.NewStore().SetAPIKey(key); err != nil {
		return err
	}
	cmd.Println("API key stored.")
	return nil
}

func promptForKey(cmd *cobra.Command) (string, error) {
	cmd.Print("Bot service API key: ")

	// Hidden input when attached to a terminal, plain read otherwise.
	keyBytes, err := term.ReadPassword(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		reader := bufio.NewReader(cmd.InOrStdin())
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading API key: %w", err)
		}
		return strings.TrimSpace(line), nil
	}
	return strings.TrimSpace(string(keyBytes)), nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	key, err := credentials.NewStore().GetAPIKey()
	if err != nil {
		if errors.Is(err, credentials.ErrNoAPIKey) {
			cmd.Println("No API key configured. Run 'postmeet auth set-key'.")
			return nil
		}
		return err
	}

	source := "keyring"
	if os.Getenv(credentials.EnvAPIKey) != "" {
		source = "environment"
	}
	cmd.Printf("API key configured (%s): %s\n", source, maskKey(key))
	return nil
}

func runAuthClear(cmd *cobra.Command, _ []string) error {
	if err := credentials.NewStore().DeleteAPIKey(); err != nil {
		return err
	}
	cmd.Println("API key removed.")
	return nil
}

// maskKey shows just enough of a key to recognize it.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
