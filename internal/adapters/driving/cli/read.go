package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/adapters/driving/tui"
)

var readCmd = &cobra.Command{
	Use:   "read [book]",
	Short: "Read a book in the terminal",
	Long: `Opens the terminal reader at the given book, resuming from where
you left off.

Controls:
  up/k, down/j - Scroll
  [/h, ]/l     - Previous / next chapter
  Esc          - Back
  q            - Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runRead,
}

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the library in the terminal",
	Long: `Opens the terminal bookshelf. Pick a book to see its chapters and
start reading; your position is remembered.

Controls:
  up/k, down/j - Navigate
  Enter        - Select
  Esc          - Back
  q            - Quit`,
	RunE: runBrowse,
}

func init() {
	rootCmd.AddCommand(readCmd)
	rootCmd.AddCommand(browseCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	if libraryService == nil || readerService == nil {
		return errors.New("reader service not configured")
	}

	ctx := context.Background()
	book, err := libraryService.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("finding book: %w", err)
	}

	return launchTUI(cmd, book.ID)
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	if libraryService == nil || readerService == nil {
		return errors.New("reader service not configured")
	}

	return launchTUI(cmd, "")
}

// launchTUI runs the terminal UI, opened at bookID when given.
func launchTUI(cmd *cobra.Command, bookID string) error {
	// Recover panics so the stack trace survives the alt screen
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Library: libraryService,
		Reader:  readerService,
	})
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	app.WithContext(cmd.Context())
	if bookID != "" {
		app.OpenBook(bookID)
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
