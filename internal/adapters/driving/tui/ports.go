// Package tui implements the interactive terminal reader for quire.
// It is a driving adapter: the views talk to the core exclusively
// through the library and reader ports.
package tui

import (
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Library lists books and their chapter outlines.
	Library driving.LibraryService

	// Reader serves chapter content and tracks reading progress.
	Reader driving.ReaderService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(library driving.LibraryService, reader driving.ReaderService) *Ports {
	return &Ports{
		Library: library,
		Reader:  reader,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p.Library == nil {
		return ErrMissingLibraryService
	}
	if p.Reader == nil {
		return ErrMissingReaderService
	}
	return nil
}
