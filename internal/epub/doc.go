// Package epub reads EPUB containers: the ZIP envelope, the OPF
// package document, the table of contents and the cover image. It
// exposes the book's structure and raw resources without transforming
// anything; the transformation pipeline lives in internal/transform.
//
// Both EPUB 2 (NCX, guide, meta cover) and EPUB 3 (nav document,
// cover-image property) conventions are understood. Hrefs handed out
// by this package are ZIP-internal paths, resolved and URL-decoded, so
// callers can compare paths from the spine, the TOC and the manifest
// directly.
package epub
