package driven

import "context"

// Fetcher downloads an EPUB from a remote URL.
// Implementations enforce polite request pacing and size limits.
type Fetcher interface {
	// Fetch retrieves the resource and returns a filename hint
	// (derived from the URL or response headers) and the body.
	Fetch(ctx context.Context, url string) (filename string, data []byte, err error)
}
