package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/core/domain"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List books in the library",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if libraryService == nil {
		return errors.New("library service not configured")
	}

	ctx := context.Background()

	books, err := libraryService.List(ctx)
	if err != nil {
		return fmt.Errorf("listing books: %w", err)
	}

	if listJSON {
		return outputBooksJSON(cmd, books)
	}
	return outputBooksTable(cmd, books)
}

// bookJSON is the machine output shape for list --json.
type bookJSON struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Author      string  `json:"author,omitempty"`
	Chapters    int     `json:"chapters"`
	AddedAt     string  `json:"added_at"`
	LastChapter int     `json:"last_chapter,omitempty"`
	Position    float64 `json:"last_position,omitempty"`
	Percent     int     `json:"percent"`
}

func outputBooksJSON(cmd *cobra.Command, books []domain.Book) error {
	out := make([]bookJSON, 0, len(books))
	for i := range books {
		b := &books[i]
		out = append(out, bookJSON{
			ID:          b.ID,
			Title:       b.Title,
			Author:      b.Author,
			Chapters:    b.ChapterCount,
			AddedAt:     b.AddedAt.Format(time.RFC3339),
			LastChapter: b.LastChapter,
			Position:    b.LastPosition,
			Percent:     b.ProgressPercent(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling books: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputBooksTable(cmd *cobra.Command, books []domain.Book) error {
	if len(books) == 0 {
		cmd.Println("The library is empty. Import a book with: quire import <file.epub>")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tCHAPTERS\tPROGRESS")
	for i := range books {
		b := &books[i]
		progress := "-"
		if b.Opened() {
			progress = fmt.Sprintf("%d%%", b.ProgressPercent())
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			shortID(b.ID), b.Title, b.Author, b.ChapterCount, progress)
	}
	return w.Flush()
}

// shortID returns the display prefix of a book ID. Commands accept
// prefixes back through LibraryService.Resolve.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
