// Package transform converts an opened EPUB into stored chapters: it
// extracts image assets, sanitises and namespaces the book's CSS,
// segments the spine into reading chapters, rewrites image and link
// references, and wraps each chapter as a self-contained HTML
// fragment. It also provides the HTML-to-plain-text reduction used by
// PDF export and the terminal reading panes.
//
// The pipeline is pure: it reads from the epub.Book and returns the
// chapters and assets in memory. Writing assets to disk and persisting
// chapters is the ingest service's job.
package transform
