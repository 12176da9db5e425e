package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rmYes bool

var rmCmd = &cobra.Command{
	Use:   "rm [book]",
	Short: "Delete a book from the library",
	Long: `Deletes a book, its chapters and its extracted assets, including
the stored source EPUB. This cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	book, err := libraryService.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("finding book: %w", err)
	}

	if !rmYes {
		cmd.Printf("Delete %q? [y/N]: ", book.Title)
		input := readLine(bufio.NewReader(cmd.InOrStdin()))
		if !strings.EqualFold(input, "y") && !strings.EqualFold(input, "yes") {
			cmd.Println("Cancelled.")
			return nil
		}
	}

	if err := libraryService.Delete(ctx, book.ID); err != nil {
		return fmt.Errorf("deleting book: %w", err)
	}

	cmd.Printf("Deleted %q (%s).\n", book.Title, shortID(book.ID))
	return nil
}
