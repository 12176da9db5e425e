package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quirelabs/quire/internal/core/domain"
)

var (
	exportLayout  string
	exportQuality string
	exportOut     string
)

var exportCmd = &cobra.Command{
	Use:   "export [book]",
	Short: "Export a book to PDF",
	Long: `Renders a book to PDF. Without --out the file is written to the
library's exports directory.

Layouts:
  standard - A4 pages for desktop reading and print
  mobile   - 4.5in x 7in pages sized for phone screens

Qualities: standard, high, print.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportLayout, "layout", "l", "", "page layout: standard or mobile")
	exportCmd.Flags().StringVarP(&exportQuality, "quality", "q", "", "render quality: standard, high or print")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write the PDF to this path")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	if libraryService == nil || exportService == nil {
		return errors.New("export service not configured")
	}

	ctx := context.Background()

	book, err := libraryService.Resolve(ctx, args[0])
	if err != nil {
		return fmt.Errorf("finding book: %w", err)
	}

	opts := domain.DefaultExportOptions()
	if settingsService != nil {
		opts = settingsService.ExportDefaults()
	}
	if exportLayout != "" {
		opts.Layout = domain.Layout(exportLayout)
	}
	if exportQuality != "" {
		opts.Quality = domain.Quality(exportQuality)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	if exportOut != "" {
		return exportToPath(ctx, cmd, book, opts, exportOut)
	}

	path, err := exportService.PDF(ctx, book.ID, opts)
	if err != nil {
		return fmt.Errorf("rendering PDF: %w", err)
	}
	cmd.Printf("Exported %q to %s\n", book.Title, path)
	return nil
}

func exportToPath(ctx context.Context, cmd *cobra.Command, book *domain.Book, opts domain.ExportOptions, out string) error {
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if _, err := exportService.PDFTo(ctx, f, book.ID, opts); err != nil {
		//nolint:errcheck // Drop the partial file, the render error matters more
		_ = f.Close()
		_ = os.Remove(out)
		return fmt.Errorf("rendering PDF: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	cmd.Printf("Exported %q to %s\n", book.Title, out)
	return nil
}
