package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [book]",
	Short: "Show book details and chapters",
	Long:  `Shows a book's metadata and chapter outline. Books are addressed by ID or by a unique ID prefix.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	book, err := libraryService.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("finding book: %w", err)
	}

	cmd.Printf("%s\n\n", book.Title)
	cmd.Printf("  ID:          %s\n", book.ID)
	if book.Author != "" {
		cmd.Printf("  Author:      %s\n", book.Author)
	}
	if book.Language != "" {
		cmd.Printf("  Language:    %s\n", book.Language)
	}
	if book.Identifier != "" {
		cmd.Printf("  Identifier:  %s\n", book.Identifier)
	}
	cmd.Printf("  Added:       %s\n", book.AddedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Chapters:    %d\n", book.ChapterCount)
	if book.Opened() {
		cmd.Printf("  Progress:    %d%% (chapter %d of %d)\n",
			book.ProgressPercent(), book.LastChapter, book.ChapterCount)
	}
	if book.Description != "" {
		cmd.Printf("\n  %s\n", book.Description)
	}

	outline, err := libraryService.Outline(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("loading chapters: %w", err)
	}

	cmd.Println("\n  Chapters:")
	for i := range outline {
		cmd.Printf("    %3d. %s\n", outline[i].Index, outline[i].Title)
	}

	return nil
}
