package driving

import (
	"context"
	"io"

	"github.com/quirelabs/quire/internal/core/domain"
)

// ExportService renders books to PDF.
type ExportService interface {
	// PDF renders the book and writes it under the library's exports
	// directory, returning the absolute output path.
	PDF(ctx context.Context, bookID string, opts domain.ExportOptions) (string, error)

	// PDFTo renders the book directly to w, returning the suggested
	// download filename.
	PDFTo(ctx context.Context, w io.Writer, bookID string, opts domain.ExportOptions) (string, error)
}
