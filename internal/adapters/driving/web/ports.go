package web

import (
	"errors"

	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// Missing service errors returned by Ports.Validate.
var (
	ErrMissingLibraryService = errors.New("web: library service is required")
	ErrMissingIngestService  = errors.New("web: ingest service is required")
	ErrMissingReaderService  = errors.New("web: reader service is required")
	ErrMissingExportService  = errors.New("web: export service is required")
)

// Ports aggregates the driving port interfaces the web server needs.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Library manages the book collection.
	Library driving.LibraryService

	// Ingest imports uploaded EPUBs.
	Ingest driving.IngestService

	// Reader serves chapters and tracks progress.
	Reader driving.ReaderService

	// Export renders PDFs.
	Export driving.ExportService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	if p.Ingest == nil {
		return ErrMissingIngestService
	}
	if p.Reader == nil {
		return ErrMissingReaderService
	}
	if p.Export == nil {
		return ErrMissingExportService
	}
	return nil
}
