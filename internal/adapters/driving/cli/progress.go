package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	progressChapter  int
	progressPosition float64
)

var progressCmd = &cobra.Command{
	Use:   "progress [book]",
	Short: "Show or set reading progress",
	Long: `Without flags, shows where you are in the book. With --chapter
and/or --position, moves the reading position instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runProgress,
}

func init() {
	progressCmd.Flags().IntVarP(&progressChapter, "chapter", "c", 0, "set the current chapter")
	progressCmd.Flags().Float64VarP(&progressPosition, "position", "p", 0, "set the scroll position within the chapter (0.0-1.0)")
	rootCmd.AddCommand(progressCmd)
}

func runProgress(cmd *cobra.Command, args []string) error {
	if libraryService == nil || readerService == nil {
		return errors.New("reader service not configured")
	}

	ctx := context.Background()

	book, err := libraryService.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("finding book: %w", err)
	}

	if cmd.Flags().Changed("chapter") || cmd.Flags().Changed("position") {
		return setProgress(ctx, cmd, book.ID, book.ChapterCount)
	}

	progress, err := readerService.Progress(ctx, book.ID)
	if err != nil {
		return fmt.Errorf("reading progress: %w", err)
	}

	if progress.Chapter == 0 {
		cmd.Printf("%q has not been opened yet.\n", book.Title)
		return nil
	}
	cmd.Printf("%q: chapter %d of %d, %.0f%% through the chapter.\n",
		book.Title, progress.Chapter, book.ChapterCount, progress.Position*100)
	return nil
}

func setProgress(ctx context.Context, cmd *cobra.Command, bookID string, chapterCount int) error {
	chapter := progressChapter
	if !cmd.Flags().Changed("chapter") {
		// Position-only updates keep the current chapter.
		current, err := readerService.Progress(ctx, bookID)
		if err != nil {
			return fmt.Errorf("reading progress: %w", err)
		}
		chapter = current.Chapter
		if chapter == 0 {
			chapter = 1
		}
	}

	if err := readerService.UpdateProgress(ctx, bookID, chapter, progressPosition); err != nil {
		return fmt.Errorf("updating progress: %w", err)
	}

	cmd.Printf("Progress set: chapter %d of %d.\n", chapter, chapterCount)
	return nil
}
