package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess [book]",
	Short: "Rebuild chapters from stored sources",
	Long: `Re-runs the transformation pipeline from the stored source EPUBs,
replacing each book's chapters. Useful after an upgrade changes how
books are split or cleaned. With a book argument only that book is
reprocessed, otherwise all books are.

Reading progress is kept, clamped to the new chapter count.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReprocess,
}

func init() {
	rootCmd.AddCommand(reprocessCmd)
}

func runReprocess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	if len(args) > 0 {
		if libraryService == nil {
			return errors.New("library service not configured")
		}
		book, err := libraryService.Resolve(ctx, args[0])
		if err != nil {
			return fmt.Errorf("finding book: %w", err)
		}

		cmd.Printf("Reprocessing %q...\n", book.Title)
		updated, err := ingestService.Reprocess(ctx, book.ID)
		if err != nil {
			return fmt.Errorf("reprocessing book: %w", err)
		}
		cmd.Printf("Reprocessed %q: %d chapter(s).\n", updated.Title, updated.ChapterCount)
		return nil
	}

	cmd.Println("Reprocessing all books...")
	count, err := ingestService.ReprocessAll(ctx)
	if err != nil {
		return fmt.Errorf("reprocessing books: %w", err)
	}
	cmd.Printf("Reprocessed %d book(s).\n", count)
	return nil
}
