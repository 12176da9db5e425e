package driven

import (
	"context"
	"io"

	"github.com/quirelabs/quire/internal/core/domain"
)

// PDFRenderer renders a book's reduced chapters to a PDF document.
// Chapters arrive in reading order with Text populated; renderers
// never see the chapter HTML.
type PDFRenderer interface {
	// Render writes the complete PDF to w.
	Render(ctx context.Context, w io.Writer, book domain.Book, chapters []domain.Chapter, opts domain.ExportOptions) error
}
