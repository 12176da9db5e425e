package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/quirelabs/quire/internal/core/domain"
)

// expectedMimetype is the required content of the "mimetype" entry.
const expectedMimetype = "application/epub+zip"

// Metadata is the package metadata quire cares about, flattened from
// the Dublin Core elements. Missing elements are empty strings.
type Metadata struct {
	// Title is the first dc:title.
	Title string

	// Author is the first dc:creator.
	Author string

	// Language is the first dc:language.
	Language string

	// Identifier is the identifier named by the package's
	// unique-identifier attribute, falling back to the first
	// dc:identifier.
	Identifier string

	// Description is the first dc:description.
	Description string
}

// ManifestItem is a resource declared in the OPF manifest.
type ManifestItem struct {
	// ID is the manifest item id.
	ID string

	// Href is the item's href as written in the OPF, relative to the
	// OPF directory.
	Href string

	// Path is the resolved ZIP-internal path.
	Path string

	// MediaType is the declared media type.
	MediaType string

	// Properties is the space-separated properties attribute.
	Properties string
}

// HasProperty reports whether the item's properties attribute contains
// the given space-separated token.
func (m ManifestItem) HasProperty(name string) bool {
	for _, p := range strings.Fields(m.Properties) {
		if p == name {
			return true
		}
	}
	return false
}

// SpineItem is one entry of the reading order.
type SpineItem struct {
	ManifestItem

	// Linear is false for auxiliary content (linear="no").
	Linear bool
}

// TOCEntry is a flattened table-of-contents entry.
type TOCEntry struct {
	// Title is the entry's display text.
	Title string

	// Path is the resolved ZIP-internal path of the target document,
	// without fragment.
	Path string

	// Fragment is the target fragment identifier, without '#'.
	Fragment string
}

// GuideRef is one EPUB 2 guide reference.
type GuideRef struct {
	// Type is the reference type (e.g., "cover", "toc").
	Type string

	// Title is the reference's display title.
	Title string

	// Path is the resolved ZIP-internal path, without fragment.
	Path string
}

// Book provides read access to an EPUB container.
// Use Open or NewReader to create one.
//
// A Book is not safe for concurrent use by multiple goroutines.
type Book struct {
	zip      *zip.Reader
	zipExact map[string]*zip.File
	zipLower map[string]*zip.File
	closer   io.Closer

	opfPath  string
	opfDir   string
	version  string
	metadata Metadata
	metas    []opfMeta
	manifest []ManifestItem
	byID     map[string]*ManifestItem
	byPath   map[string]*ManifestItem
	spine    []SpineItem
	guide    []GuideRef
	toc      []TOCEntry
	navPath  string
}

// Open opens the EPUB file at the given path.
// The caller must call Close when done.
func Open(p string) (*Book, error) {
	zrc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", p, domain.ErrNotEPUB)
	}

	b, err := initBook(&zrc.Reader, zrc)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return b, nil
}

// NewReader creates a Book from an io.ReaderAt with the given size.
// The caller owns the lifetime of r; Close only releases internal state.
func NewReader(r io.ReaderAt, size int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epub: open zip: %w", domain.ErrNotEPUB)
	}
	return initBook(zr, nil)
}

// initBook performs common initialisation: mimetype validation, DRM
// detection, container and OPF parsing, TOC parsing.
func initBook(zr *zip.Reader, closer io.Closer) (*Book, error) {
	b := &Book{
		zip:    zr,
		closer: closer,
	}
	b.buildZipIndex()

	if err := b.validateMimetype(); err != nil {
		return nil, err
	}

	if err := checkDRM(zr); err != nil {
		return nil, err
	}

	opfPath, err := parseContainer(zr)
	if err != nil {
		return nil, err
	}
	b.opfPath = opfPath
	b.opfDir = path.Dir(opfPath)

	opfFile := b.findFile(opfPath)
	if opfFile == nil {
		return nil, fmt.Errorf("epub: OPF %s missing from archive: %w", opfPath, domain.ErrNotEPUB)
	}
	opfData, err := readZipFile(opfFile)
	if err != nil {
		return nil, fmt.Errorf("epub: read OPF: %w", err)
	}

	pkg, err := parseOPF(opfData)
	if err != nil {
		return nil, err
	}
	b.version = pkg.Version
	b.metadata = extractMetadata(pkg)
	b.metas = pkg.Metadata.Metas
	b.buildManifest(pkg)
	b.buildSpine(pkg)
	b.buildGuide(pkg)

	// A missing or broken TOC is not fatal; titles fall back to the
	// document content.
	b.parseTOC(pkg)

	return b, nil
}

// validateMimetype requires the first ZIP entry to be "mimetype" with
// the EPUB media type, tolerating surrounding whitespace.
func (b *Book) validateMimetype() error {
	if len(b.zip.File) == 0 {
		return fmt.Errorf("epub: empty archive: %w", domain.ErrNotEPUB)
	}
	first := b.zip.File[0]
	if first.Name != "mimetype" {
		return fmt.Errorf("epub: first entry is %q, want mimetype: %w", first.Name, domain.ErrNotEPUB)
	}
	data, err := readZipFile(first)
	if err != nil {
		return fmt.Errorf("epub: read mimetype: %w", domain.ErrNotEPUB)
	}
	if strings.TrimSpace(string(data)) != expectedMimetype {
		return fmt.Errorf("epub: mimetype is %q: %w", strings.TrimSpace(string(data)), domain.ErrNotEPUB)
	}
	return nil
}

// Close releases resources held by the Book. When the Book was created
// via Open, Close closes the underlying file. Close is idempotent.
func (b *Book) Close() error {
	if b.closer != nil {
		err := b.closer.Close()
		b.closer = nil
		return err
	}
	return nil
}

// Metadata returns the package metadata.
func (b *Book) Metadata() Metadata {
	return b.metadata
}

// Version returns the EPUB specification version ("2.0", "3.0", ...).
func (b *Book) Version() string {
	return b.version
}

// Manifest returns all declared resources.
func (b *Book) Manifest() []ManifestItem {
	return b.manifest
}

// Spine returns the reading order.
func (b *Book) Spine() []SpineItem {
	return b.spine
}

// Guide returns the EPUB 2 guide references.
func (b *Book) Guide() []GuideRef {
	return b.guide
}

// TOC returns the flattened table of contents in document order.
// Empty when the book has none.
func (b *Book) TOC() []TOCEntry {
	return b.toc
}

// NavPath returns the ZIP-internal path of the EPUB 3 nav document,
// or empty string when the book has none.
func (b *Book) NavPath() string {
	return b.navPath
}

// Images returns the manifest items with an image media type.
func (b *Book) Images() []ManifestItem {
	var items []ManifestItem
	for _, m := range b.manifest {
		if strings.HasPrefix(m.MediaType, "image/") {
			items = append(items, m)
		}
	}
	return items
}

// Stylesheets returns the manifest items declared as text/css, in
// manifest order.
func (b *Book) Stylesheets() []ManifestItem {
	var items []ManifestItem
	for _, m := range b.manifest {
		if strings.EqualFold(m.MediaType, "text/css") {
			items = append(items, m)
		}
	}
	return items
}

// ItemByPath returns the manifest item at the given ZIP-internal path.
func (b *Book) ItemByPath(p string) (ManifestItem, bool) {
	if m, ok := b.byPath[p]; ok {
		return *m, true
	}
	return ManifestItem{}, false
}

// ReadPath reads a file from the archive by its ZIP-internal path.
// The lookup falls back to case-insensitive matching.
func (b *Book) ReadPath(p string) ([]byte, error) {
	f := b.findFile(p)
	if f == nil {
		return nil, fmt.Errorf("epub: %s: %w", p, domain.ErrNotFound)
	}
	return readZipFile(f)
}

// ReadItem reads a manifest item's content.
func (b *Book) ReadItem(item ManifestItem) ([]byte, error) {
	return b.ReadPath(item.Path)
}

// Resolve resolves an OPF-relative href to a ZIP-internal path.
// Returns empty string for hrefs that escape the archive root.
func (b *Book) Resolve(href string) string {
	return resolveRelativePath(b.opfPath, href)
}

// ResolvePath resolves href against the directory of basePath. Both
// are ZIP-internal paths. Returns empty string when the target is
// absolute or escapes the archive root.
func ResolvePath(basePath, href string) string {
	return resolveRelativePath(basePath, href)
}

// buildZipIndex builds exact and lowercase entry indexes for O(1) lookups.
func (b *Book) buildZipIndex() {
	b.zipExact = make(map[string]*zip.File, len(b.zip.File))
	b.zipLower = make(map[string]*zip.File, len(b.zip.File))
	for _, f := range b.zip.File {
		if _, exists := b.zipExact[f.Name]; !exists {
			b.zipExact[f.Name] = f
		}
		lower := strings.ToLower(f.Name)
		if _, exists := b.zipLower[lower]; !exists {
			b.zipLower[lower] = f
		}
	}
}

// findFile looks up a ZIP entry, trying exact then case-insensitive.
func (b *Book) findFile(name string) *zip.File {
	if f, ok := b.zipExact[name]; ok {
		return f
	}
	if f, ok := b.zipLower[strings.ToLower(name)]; ok {
		return f
	}
	return nil
}

// buildManifest converts the parsed OPF manifest into resolved items
// and lookup maps.
func (b *Book) buildManifest(pkg *opfPackage) {
	b.manifest = make([]ManifestItem, 0, len(pkg.Manifest.Items))
	for _, raw := range pkg.Manifest.Items {
		resolved := resolveRelativePath(b.opfPath, raw.Href)
		if resolved == "" {
			continue
		}
		b.manifest = append(b.manifest, ManifestItem{
			ID:         raw.ID,
			Href:       raw.Href,
			Path:       resolved,
			MediaType:  raw.MediaType,
			Properties: raw.Properties,
		})
	}

	b.byID = make(map[string]*ManifestItem, len(b.manifest))
	b.byPath = make(map[string]*ManifestItem, len(b.manifest))
	for i := range b.manifest {
		m := &b.manifest[i]
		b.byID[m.ID] = m
		b.byPath[m.Path] = m
	}
}

// buildSpine resolves spine itemrefs through the manifest. Itemrefs
// pointing at unknown manifest ids are dropped.
func (b *Book) buildSpine(pkg *opfPackage) {
	b.spine = make([]SpineItem, 0, len(pkg.Spine.ItemRefs))
	for _, ref := range pkg.Spine.ItemRefs {
		m, ok := b.byID[ref.IDRef]
		if !ok {
			continue
		}
		b.spine = append(b.spine, SpineItem{
			ManifestItem: *m,
			Linear:       ref.Linear != "no",
		})
	}
}

// buildGuide resolves guide reference hrefs, stripping fragments.
func (b *Book) buildGuide(pkg *opfPackage) {
	b.guide = make([]GuideRef, 0, len(pkg.Guide.References))
	for _, r := range pkg.Guide.References {
		href := r.Href
		if i := strings.IndexByte(href, '#'); i >= 0 {
			href = href[:i]
		}
		resolved := resolveRelativePath(b.opfPath, href)
		if resolved == "" {
			continue
		}
		b.guide = append(b.guide, GuideRef{
			Type:  r.Type,
			Title: r.Title,
			Path:  resolved,
		})
	}
}
