package epub

import (
	"bytes"
	"encoding/xml"
	"strings"

	"golang.org/x/net/html"
)

// ncxDocument models the EPUB 2 NCX table of contents.
type ncxDocument struct {
	XMLName xml.Name  `xml:"ncx"`
	NavMap  ncxNavMap `xml:"navMap"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	Label    ncxNavLabel   `xml:"navLabel"`
	Content  ncxContent    `xml:"content"`
	Children []ncxNavPoint `xml:"navPoint"`
}

type ncxNavLabel struct {
	Text string `xml:"text"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// parseTOC fills b.toc from the EPUB 3 nav document when present,
// falling back to the EPUB 2 NCX. The nested structure is flattened in
// document order; quire only uses the TOC for chapter titles.
func (b *Book) parseTOC(pkg *opfPackage) {
	if entries, ok := b.parseNavTOC(); ok {
		b.toc = entries
		return
	}
	if entries, ok := b.parseNCXTOC(pkg); ok {
		b.toc = entries
		return
	}
	b.toc = nil
}

// parseNavTOC locates the manifest item with a "nav" property, parses
// its epub:type="toc" nav element, and records the nav document path so
// the segmentation step can exclude it from the reading chapters.
func (b *Book) parseNavTOC() ([]TOCEntry, bool) {
	var nav *ManifestItem
	for i := range b.manifest {
		if b.manifest[i].HasProperty("nav") {
			nav = &b.manifest[i]
			break
		}
	}
	if nav == nil {
		return nil, false
	}
	b.navPath = nav.Path

	data, err := b.ReadPath(nav.Path)
	if err != nil {
		return nil, false
	}
	entries, err := parseNavDocument(data, nav.Path)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// parseNCXTOC resolves the spine's toc attribute through the manifest,
// falling back to the first item with the NCX media type.
func (b *Book) parseNCXTOC(pkg *opfPackage) ([]TOCEntry, bool) {
	var ncx *ManifestItem
	if pkg.Spine.Toc != "" {
		if m, ok := b.byID[pkg.Spine.Toc]; ok {
			ncx = m
		}
	}
	if ncx == nil {
		for i := range b.manifest {
			if strings.EqualFold(b.manifest[i].MediaType, "application/x-dtbncx+xml") {
				ncx = &b.manifest[i]
				break
			}
		}
	}
	if ncx == nil {
		return nil, false
	}

	data, err := b.ReadPath(ncx.Path)
	if err != nil {
		return nil, false
	}
	entries, err := parseNCX(data, ncx.Path)
	if err != nil || len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// parseNCX parses NCX data into flattened entries. ncxPath is the
// ZIP-internal location of the NCX, used to resolve relative srcs.
func parseNCX(data []byte, ncxPath string) ([]TOCEntry, error) {
	data = stripBOM(preprocessEntities(data))

	var doc ncxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	var entries []TOCEntry
	flattenNavPoints(&entries, doc.NavMap.NavPoints, ncxPath)
	return entries, nil
}

// flattenNavPoints appends navPoints depth-first in document order.
func flattenNavPoints(out *[]TOCEntry, points []ncxNavPoint, ncxPath string) {
	for _, np := range points {
		if e, ok := tocEntry(strings.TrimSpace(np.Label.Text), np.Content.Src, ncxPath); ok {
			*out = append(*out, e)
		}
		flattenNavPoints(out, np.Children, ncxPath)
	}
}

// parseNavDocument parses an EPUB 3 nav document, reading the <ol> of
// the nav element whose epub:type contains "toc".
func parseNavDocument(data []byte, navPath string) ([]TOCEntry, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var entries []TOCEntry
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inTOC bool) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "nav":
				inTOC = hasEpubType(n, "toc")
			case "a":
				if inTOC {
					href := nodeAttr(n, "href")
					title := strings.TrimSpace(nodeText(n))
					if e, ok := tocEntry(title, href, navPath); ok {
						entries = append(entries, e)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inTOC)
		}
	}
	walk(doc, false)

	return entries, nil
}

// tocEntry builds a resolved entry, splitting off the fragment.
// Entries without a usable target are dropped.
func tocEntry(title, href, basePath string) (TOCEntry, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return TOCEntry{}, false
	}
	fragment := ""
	if i := strings.IndexByte(href, '#'); i >= 0 {
		fragment = href[i+1:]
		href = href[:i]
	}
	// Fragment-only entries point into the document they live in.
	resolved := basePath
	if href != "" {
		resolved = resolveRelativePath(basePath, href)
		if resolved == "" {
			return TOCEntry{}, false
		}
	}
	return TOCEntry{Title: title, Path: resolved, Fragment: fragment}, true
}

// hasEpubType reports whether n's epub:type attribute contains the
// given space-separated token.
func hasEpubType(n *html.Node, name string) bool {
	for _, t := range strings.Fields(nodeAttr(n, "epub:type")) {
		if t == name {
			return true
		}
	}
	return false
}

// nodeAttr returns the value of the named attribute on n.
func nodeAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// nodeText collects the text content under n.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}
