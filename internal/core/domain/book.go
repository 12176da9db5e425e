package domain

import (
	"strings"
	"time"
)

// Book represents an imported EPUB with its metadata and reading progress.
// The transformed chapters are stored separately as Chapter records.
type Book struct {
	// ID is the unique identifier for the book.
	ID string

	// Title is the book title from the package metadata,
	// falling back to the source filename when absent.
	Title string

	// Author is the primary creator from the package metadata.
	// "Unknown" when the EPUB carries no creator.
	Author string

	// Language is the declared language code (e.g., "en"), may be empty.
	Language string

	// Identifier is the package unique-identifier (ISBN, UUID, ...), may be empty.
	Identifier string

	// Description is the package description, may be empty.
	Description string

	// SourcePath is the stored copy of the imported .epub, relative
	// to the library root.
	SourcePath string

	// CoverPath is the extracted cover image, relative to the library
	// root. Empty when no cover was detected.
	CoverPath string

	// ChapterCount is the number of readable chapters produced by the
	// transformation pipeline.
	ChapterCount int

	// AddedAt is when the book was imported.
	AddedAt time.Time

	// LastChapter is the 1-based index of the chapter last read.
	// Zero means the book has never been opened.
	LastChapter int

	// LastPosition is the scroll position within LastChapter as a
	// fraction in [0, 1].
	LastPosition float64
}

// Opened reports whether the book has ever been opened in the reader.
func (b *Book) Opened() bool {
	return b.LastChapter > 0
}

// ProgressPercent returns a coarse reading progress percentage based on
// the last chapter read. Returns 0 for unopened books.
func (b *Book) ProgressPercent() int {
	if b.LastChapter <= 0 || b.ChapterCount <= 0 {
		return 0
	}
	chapters := float64(b.LastChapter-1) + b.LastPosition
	pct := int(chapters / float64(b.ChapterCount) * 100)
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return pct
}

// Slug returns a filesystem-friendly name derived from the title,
// used for export filenames. Falls back to "book" when the title
// reduces to nothing.
func (b *Book) Slug() string {
	var sb strings.Builder
	for _, r := range strings.ToLower(b.Title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			sb.WriteRune('_')
		}
	}
	slug := strings.Trim(sb.String(), "_")
	for strings.Contains(slug, "__") {
		slug = strings.ReplaceAll(slug, "__", "_")
	}
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "_")
	}
	if slug == "" {
		return "book"
	}
	return slug
}

// Chapter is a readable unit of a book in reading order.
// Content has been through the transformation pipeline: assets point at
// served URLs, internal links at reader routes, and the markup is
// wrapped in a namespaced container with the book's sanitised styles.
type Chapter struct {
	// ID is the unique identifier for the chapter.
	ID string

	// BookID links to the parent Book.
	BookID string

	// Index is the 1-based position in reading order.
	Index int

	// Title is the resolved chapter title.
	Title string

	// HTML is the transformed, self-contained chapter fragment.
	HTML string

	// Text is the reduced plain text, refreshed whenever the book is
	// (re)processed. Used for PDF export, search and terminal reading.
	Text string
}

// Progress is the reader's position within a book.
type Progress struct {
	// BookID identifies the book.
	BookID string

	// Chapter is the 1-based chapter index, 0 if never opened.
	Chapter int

	// Position is the scroll fraction within the chapter, in [0, 1].
	Position float64
}

// Clamp bounds the progress to a book with n chapters.
// Chapter is forced into [0, n] and Position into [0, 1].
func (p Progress) Clamp(n int) Progress {
	if p.Chapter < 0 {
		p.Chapter = 0
	}
	if p.Chapter > n {
		p.Chapter = n
	}
	if p.Position < 0 {
		p.Position = 0
	}
	if p.Position > 1 {
		p.Position = 1
	}
	return p
}

// SearchMatch is a single hit from an in-book text search.
type SearchMatch struct {
	// ChapterIndex is the 1-based chapter the match occurred in.
	ChapterIndex int

	// ChapterTitle is the chapter's resolved title.
	ChapterTitle string

	// Snippet is the matched text with surrounding context.
	Snippet string
}
