// Package domain defines the core business entities for Quire.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Book: An imported EPUB with metadata and reading progress
//   - Chapter: A readable unit of a book, in reading order
//   - Progress: The reader's position within a book
//   - ExportOptions: Layout and quality settings for PDF export
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
