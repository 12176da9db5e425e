// Package mcp provides an MCP (Model Context Protocol) server adapter
// for quire. It lets AI assistants browse the library, read chapters
// and search inside books.
package mcp

import "errors"

// ErrMissingLibraryService is returned when the library service is not provided.
var ErrMissingLibraryService = errors.New("mcp: library service is required")

// ErrMissingReaderService is returned when the reader service is not provided.
var ErrMissingReaderService = errors.New("mcp: reader service is required")
