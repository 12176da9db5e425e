// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - BookStore: Book metadata and reading-progress persistence
//   - ChapterStore: Transformed chapter persistence
//   - ConfigStore: Application configuration
//   - PDFRenderer: Renders a reduced book to PDF
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Fetcher: Downloads EPUBs from URLs. Without it, only local
//     imports are available.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
