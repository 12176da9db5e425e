package transform

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/quirelabs/quire/internal/core/domain"
	"github.com/quirelabs/quire/internal/epub"
	"github.com/quirelabs/quire/internal/library"
)

// minChapterText is the reduced-text length below which a spine
// document is considered front matter and dropped.
const minChapterText = 100

// Options configures a pipeline run.
type Options struct {
	// BookID is the identifier assets and chapter links are keyed by.
	BookID string

	// AssetURL maps a stored asset name to its public URL. Defaults to
	// the library layout's asset URL.
	AssetURL func(name string) string

	// ChapterURL maps a 1-based chapter index to its reader URL.
	// Defaults to the library layout's chapter URL.
	ChapterURL func(index int) string
}

// Asset is an image to be written into the book's library directory.
type Asset struct {
	// Name is the sanitised, collision-free filename.
	Name string

	// ZipPath is where the image lives inside the EPUB.
	ZipPath string

	// URL is the public URL chapter HTML references.
	URL string
}

// ChapterDoc is one transformed chapter.
type ChapterDoc struct {
	// Index is the 1-based position among kept chapters.
	Index int

	// Title is the resolved chapter title.
	Title string

	// HTML is the self-contained fragment served to the reader.
	HTML string

	// Text is the reduced plain text used for PDF export and search.
	Text string

	// SourcePath is the spine document's ZIP-internal path.
	SourcePath string
}

// Result is the outcome of a pipeline run.
type Result struct {
	// Chapters are the kept chapters in spine order.
	Chapters []ChapterDoc

	// Assets are the images to write, in manifest order.
	Assets []Asset

	// CoverName is the stored name of the detected cover image, or
	// empty when the book has none.
	CoverName string
}

// pending carries a chapter between the segmentation and link passes.
type pending struct {
	item  epub.SpineItem
	doc   *goquery.Document
	title string
}

// Transform runs the whole pipeline over an opened book.
//
// Segmentation and link rewriting are separate passes so links to
// chapters later in the spine resolve: pass one keeps or drops each
// spine document and assigns indices, pass two rewrites anchors
// against the complete index.
func Transform(ctx context.Context, book *epub.Book, opts Options) (*Result, error) {
	if book == nil {
		return nil, fmt.Errorf("transform: nil book: %w", domain.ErrInvalidInput)
	}
	if opts.BookID == "" {
		return nil, fmt.Errorf("transform: book ID required: %w", domain.ErrInvalidInput)
	}
	if opts.AssetURL == nil {
		opts.AssetURL = func(name string) string {
			return library.AssetURL(opts.BookID, name)
		}
	}
	if opts.ChapterURL == nil {
		opts.ChapterURL = func(index int) string {
			return library.ChapterURL(opts.BookID, index)
		}
	}

	assets, index := collectAssets(book, opts.AssetURL)
	coverName := detectCover(book, assets)
	stylesheet := buildStylesheet(book, index)

	kept, targets, err := segment(ctx, book, index)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Assets:    assets,
		CoverName: coverName,
	}
	for i, p := range kept {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rewriteLinks(p.doc, p.item.Path, targets, opts.ChapterURL)

		body, err := p.doc.Find("body").Html()
		if err != nil {
			return nil, fmt.Errorf("transform: render %s: %w", p.item.Path, err)
		}
		wrapped := wrapChapter(stylesheet, body)

		result.Chapters = append(result.Chapters, ChapterDoc{
			Index:      i + 1,
			Title:      p.title,
			HTML:       wrapped,
			Text:       ReduceChapter(wrapped, p.title),
			SourcePath: p.item.Path,
		})
	}

	if len(result.Chapters) == 0 {
		return nil, fmt.Errorf("transform: no readable chapters: %w", domain.ErrNoContent)
	}
	return result, nil
}

// segment walks the linear spine, dropping non-chapter documents and
// assigning indices. It returns the kept documents with their parsed
// DOMs and the target map for link rewriting.
func segment(ctx context.Context, book *epub.Book, index *assetIndex) ([]pending, *chapterTargets, error) {
	bookTitle := collapseSpace(book.Metadata().Title)
	tocTitles := tocTitleMap(book)
	targets := newChapterTargets()

	var kept []pending
	for _, item := range book.Spine() {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if !item.Linear {
			continue
		}
		if skipDocument(item.Path, book.NavPath()) {
			continue
		}

		data, err := book.ReadItem(item.ManifestItem)
		if err != nil {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(normaliseSelfClosing(string(data))))
		if err != nil {
			continue
		}

		n := len(kept) + 1
		title := resolveTitle(doc, tocTitles[item.Path], bookTitle, n)

		cleanBody(doc)
		rewriteImages(doc, index)

		body, err := doc.Find("body").Html()
		if err != nil {
			continue
		}
		if utf8.RuneCountInString(ReduceChapter(body, title)) < minChapterText {
			continue
		}

		kept = append(kept, pending{item: item, doc: doc, title: title})
		targets.add(item.Path, n)
	}
	return kept, targets, nil
}

// skipDocuments lists basename fragments that mark non-chapter
// documents. Matched against the lowercased basename without
// extension.
var skipDocuments = []string{
	"cover",
	"titlepage",
	"title-page",
	"title_page",
	"copyright",
	"colophon",
	"toc",
	"nav",
	"contents",
}

// skipDocument reports whether the spine document at zipPath is front
// or back matter rather than a reading chapter.
func skipDocument(zipPath, navPath string) bool {
	if navPath != "" && zipPath == navPath {
		return true
	}
	base := strings.ToLower(path.Base(zipPath))
	base = strings.TrimSuffix(base, path.Ext(base))
	for _, frag := range skipDocuments {
		if strings.Contains(base, frag) {
			return true
		}
	}
	return false
}

// resolveTitle picks the chapter title. Candidates are tried in order:
// the TOC entry, the document <title>, the first h1, the first h2.
// A candidate equal to the book title is skipped on non-first chapters
// so cover-page titles do not leak into every chapter. Falls back to
// "Chapter N".
func resolveTitle(doc *goquery.Document, tocTitle, bookTitle string, n int) string {
	candidates := []string{
		tocTitle,
		doc.Find("title").First().Text(),
		doc.Find("h1").First().Text(),
		doc.Find("h2").First().Text(),
	}
	for _, c := range candidates {
		c = collapseSpace(c)
		if c == "" {
			continue
		}
		if n > 1 && strings.EqualFold(c, bookTitle) {
			continue
		}
		return c
	}
	return fmt.Sprintf("Chapter %d", n)
}

// tocTitleMap maps spine document paths to their TOC titles. The first
// entry per document wins; deeper entries point into the middle of it.
func tocTitleMap(book *epub.Book) map[string]string {
	titles := make(map[string]string)
	for _, e := range book.TOC() {
		if e.Title == "" {
			continue
		}
		if _, seen := titles[e.Path]; !seen {
			titles[e.Path] = e.Title
		}
	}
	return titles
}

// collapseSpace trims s and collapses internal whitespace runs.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
