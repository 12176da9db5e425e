package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show and change configuration",
	Long: `Shows the effective configuration, defaults applied. Use the set
subcommand to change values.

Keys:
  data.dir       directory for the database and, by default, the library
  library.dir    where extracted assets, sources and exports live
  inbox.dir      watched import directory (empty disables the watcher)
  server.addr    web server listen address
  server.token   web access token (empty disables auth)
  import.max_mb  import size limit in megabytes
  pdf.layout     default export layout: standard or mobile
  pdf.quality    default export quality: standard, high or print`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

var settingsSetTokenCmd = &cobra.Command{
	Use:   "set-token",
	Short: "Set the web access token",
	Long: `Prompts for the token without echoing it when stdin is a terminal.
An empty token disables authentication.`,
	RunE: runSettingsSetToken,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetTokenCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	for _, setting := range settingsService.All() {
		value := setting.Value
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %-14s %s\n", setting.Key, value)
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	cmd.Printf("Set %s.\n", key)
	return nil
}

func runSettingsSetToken(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Enter token (empty to disable auth): ")
	token := readPassword()
	cmd.Println()

	if err := settingsService.SetToken(token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	if token == "" {
		cmd.Println("Token cleared, the web server is open.")
	} else {
		cmd.Println("Token saved.")
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
