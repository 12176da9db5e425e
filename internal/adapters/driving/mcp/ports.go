package mcp

import (
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Library lists books and their chapter outlines.
	Library driving.LibraryService

	// Reader serves chapter content and search.
	Reader driving.ReaderService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	if p.Reader == nil {
		return ErrMissingReaderService
	}
	return nil
}
