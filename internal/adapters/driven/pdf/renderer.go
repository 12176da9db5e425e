// Package pdf renders reduced books to PDF with gofpdf.
//
// Two page geometries are supported: A4 for desktop reading and a
// 4.5in x 7in page sized for phone screens. Rendering consumes the
// chapters' plain text; the HTML never reaches this layer.
package pdf

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/core/ports/driven"
)

// Page geometry in inches.
const (
	sideMargin   = 0.75
	topMargin    = 0.75
	bottomMargin = 1.0

	mobileWidth  = 4.5
	mobileHeight = 7.0
)

// Type sizes in points. The body grows on the mobile layout to stay
// readable on a small page.
const (
	fontFamily = "Helvetica"

	titleSize        = 24
	authorSize       = 14
	chapterTitleSize = 18
	bodySize         = 12
	mobileBodySize   = 14
	footerSize       = 10
)

// Ensure Renderer implements the interface.
var _ driven.PDFRenderer = (*Renderer)(nil)

// Renderer is a gofpdf-backed implementation of driven.PDFRenderer.
type Renderer struct{}

// NewRenderer creates a PDF renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render writes the complete PDF to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, book domain.Book, chapters []domain.Chapter, opts domain.ExportOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if len(chapters) == 0 && !opts.IncludeTitlePage {
		return fmt.Errorf("rendering pdf: %w", domain.ErrNoContent)
	}

	doc := newDocument(opts.Layout)
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetTitle(book.Title, true)
	doc.SetAuthor(book.Author, true)
	doc.SetMargins(sideMargin, topMargin, sideMargin)
	doc.SetAutoPageBreak(true, bottomMargin)
	doc.SetFooterFunc(func() {
		doc.SetY(-0.6)
		doc.SetFont(fontFamily, "", footerSize)
		doc.CellFormat(0, 0.2, tr(fmt.Sprintf("Page %d", doc.PageNo())), "", 0, "C", false, 0, "")
	})

	if opts.IncludeTitlePage {
		writeTitlePage(doc, tr, book)
	}

	size, line := bodyMetrics(opts.Layout)
	for _, ch := range chapters {
		if err := ctx.Err(); err != nil {
			return err
		}
		writeChapter(doc, tr, ch, size, line)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("writing pdf: %w", err)
	}
	return nil
}

// newDocument creates a portrait document in the layout's page size.
func newDocument(layout domain.Layout) *gofpdf.Fpdf {
	if layout == domain.LayoutMobile {
		return gofpdf.NewCustom(&gofpdf.InitType{
			OrientationStr: "P",
			UnitStr:        "in",
			Size:           gofpdf.SizeType{Wd: mobileWidth, Ht: mobileHeight},
		})
	}
	return gofpdf.New("P", "in", "A4", "")
}

// bodyMetrics returns the body font size and line height for a layout.
func bodyMetrics(layout domain.Layout) (size, lineHeight float64) {
	if layout == domain.LayoutMobile {
		return mobileBodySize, 0.26
	}
	return bodySize, 0.22
}

// writeTitlePage renders the title, the author line and the
// generation date.
func writeTitlePage(doc *gofpdf.Fpdf, tr func(string) string, book domain.Book) {
	doc.AddPage()

	doc.SetFont(fontFamily, "B", titleSize)
	doc.MultiCell(0, 0.4, tr(book.Title), "", "C", false)
	doc.Ln(0.4)

	author := book.Author
	if author == "" {
		author = "Unknown Author"
	}
	doc.SetFont(fontFamily, "I", authorSize)
	doc.CellFormat(0, 0.28, tr("by "+author), "", 1, "C", false, 0, "")
	doc.Ln(0.25)

	added := book.AddedAt
	if added.IsZero() {
		added = time.Now()
	}
	doc.CellFormat(0, 0.28, tr(added.Format("Generated on January 02, 2006")), "", 1, "C", false, 0, "")
}

// writeChapter renders one chapter starting on a fresh page.
func writeChapter(doc *gofpdf.Fpdf, tr func(string) string, ch domain.Chapter, size, lineHeight float64) {
	doc.AddPage()

	doc.SetFont(fontFamily, "B", chapterTitleSize)
	doc.MultiCell(0, 0.32, tr(ch.Title), "", "C", false)
	doc.Ln(0.2)

	doc.SetFont(fontFamily, "", size)
	for _, para := range splitParagraphs(ch.Text) {
		doc.MultiCell(0, lineHeight, tr(para), "", "J", false)
		doc.Ln(0.08)
	}
}

// splitParagraphs breaks reduced text on blank lines and collapses
// whitespace runs within each paragraph.
func splitParagraphs(text string) []string {
	var paras []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.Join(strings.Fields(p), " ")
		if p == "" {
			continue
		}
		paras = append(paras, p)
	}
	return paras
}
