// Package library defines the on-disk layout of the book library and
// the public URL scheme for extracted assets. Services write here;
// the web adapter serves from here.
//
// Layout under the library root:
//
//	books/<bookID>/source.epub     stored copy of the import
//	books/<bookID>/images/<name>   extracted images, sanitised names
//	exports/<slug>_<layout>_<quality>.pdf
package library

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
)

// Layout resolves paths within a library root directory.
type Layout struct {
	root string
}

// NewLayout creates a layout rooted at dir.
func NewLayout(dir string) Layout {
	return Layout{root: dir}
}

// Root returns the library root directory.
func (l Layout) Root() string {
	return l.root
}

// BookDir returns the directory holding a book's source and assets.
func (l Layout) BookDir(bookID string) string {
	return filepath.Join(l.root, "books", bookID)
}

// ImagesDir returns the directory holding a book's extracted images.
func (l Layout) ImagesDir(bookID string) string {
	return filepath.Join(l.BookDir(bookID), "images")
}

// ImagePath returns the path of one extracted image.
func (l Layout) ImagePath(bookID, name string) string {
	return filepath.Join(l.ImagesDir(bookID), name)
}

// SourcePath returns the stored copy of the book's EPUB.
func (l Layout) SourcePath(bookID string) string {
	return filepath.Join(l.BookDir(bookID), "source.epub")
}

// ExportsDir returns the directory PDF exports are written to.
func (l Layout) ExportsDir() string {
	return filepath.Join(l.root, "exports")
}

// Abs resolves a library-root-relative path, as stored on Book
// records, to an absolute path.
func (l Layout) Abs(rel string) string {
	return filepath.Join(l.root, filepath.FromSlash(rel))
}

// EnsureBook creates the book's directories.
func (l Layout) EnsureBook(bookID string) error {
	if err := os.MkdirAll(l.ImagesDir(bookID), 0o755); err != nil {
		return fmt.Errorf("creating book directory: %w", err)
	}
	return nil
}

// EnsureExports creates the exports directory.
func (l Layout) EnsureExports() error {
	if err := os.MkdirAll(l.ExportsDir(), 0o755); err != nil {
		return fmt.Errorf("creating exports directory: %w", err)
	}
	return nil
}

// RemoveBook deletes the book's directory tree. Removing a book that
// has no directory is not an error.
func (l Layout) RemoveBook(bookID string) error {
	if err := os.RemoveAll(l.BookDir(bookID)); err != nil {
		return fmt.Errorf("removing book directory: %w", err)
	}
	return nil
}

// RelSourcePath returns the root-relative form of SourcePath, the
// slash-separated path stored on Book records.
func RelSourcePath(bookID string) string {
	return path.Join("books", bookID, "source.epub")
}

// RelImagePath returns the root-relative form of ImagePath.
func RelImagePath(bookID, name string) string {
	return path.Join("books", bookID, "images", name)
}

// AssetURL returns the public URL for an extracted image. The web
// adapter serves the images directory under this prefix.
func AssetURL(bookID, name string) string {
	return "/assets/books/" + bookID + "/images/" + name
}

// ChapterURL returns the reader URL for a chapter.
func ChapterURL(bookID string, index int) string {
	return fmt.Sprintf("/book/%s/chapter/%d/", bookID, index)
}
