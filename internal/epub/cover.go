package epub

import (
	"bytes"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// Cover detects the cover image. Strategies are tried in priority order:
//  1. EPUB 3 manifest item with properties="cover-image"
//  2. EPUB 2 <meta name="cover" content="ID"/> resolved via the manifest
//  3. guide reference type="cover", parsing its XHTML for the first <img>
//  4. manifest item whose id contains "cover" with an image media type
//  5. manifest item whose href basename starts with "cover" and has an
//     image extension
//
// Returns the image's manifest item and true, or false when no strategy
// succeeds.
func (b *Book) Cover() (ManifestItem, bool) {
	if item := b.coverFromProperties(); item != nil {
		return *item, true
	}
	if item := b.coverFromMeta(); item != nil {
		return *item, true
	}
	if item := b.coverFromGuide(); item != nil {
		return *item, true
	}
	if item := b.coverFromIDHeuristic(); item != nil {
		return *item, true
	}
	if item := b.coverFromHrefHeuristic(); item != nil {
		return *item, true
	}
	return ManifestItem{}, false
}

func (b *Book) coverFromProperties() *ManifestItem {
	for i := range b.manifest {
		if b.manifest[i].HasProperty("cover-image") {
			return &b.manifest[i]
		}
	}
	return nil
}

// coverFromMeta resolves <meta name="cover"> through the manifest.
// When the referenced item is an XHTML cover page rather than an image,
// its first <img> is resolved instead.
func (b *Book) coverFromMeta() *ManifestItem {
	for _, m := range b.opfMetas() {
		if !strings.EqualFold(m.Name, "cover") || m.Content == "" {
			continue
		}
		item, ok := b.byID[m.Content]
		if !ok {
			continue
		}
		if isImageMediaType(item.MediaType) {
			return item
		}
		if img := b.firstImageOf(item.Path); img != nil {
			return img
		}
	}
	return nil
}

func (b *Book) coverFromGuide() *ManifestItem {
	for _, ref := range b.guide {
		if !strings.EqualFold(ref.Type, "cover") {
			continue
		}
		if item, ok := b.byPath[ref.Path]; ok && isImageMediaType(item.MediaType) {
			return item
		}
		if img := b.firstImageOf(ref.Path); img != nil {
			return img
		}
	}
	return nil
}

func (b *Book) coverFromIDHeuristic() *ManifestItem {
	for i := range b.manifest {
		m := &b.manifest[i]
		if isImageMediaType(m.MediaType) && strings.Contains(strings.ToLower(m.ID), "cover") {
			return m
		}
	}
	return nil
}

func (b *Book) coverFromHrefHeuristic() *ManifestItem {
	for i := range b.manifest {
		m := &b.manifest[i]
		if !isImageMediaType(m.MediaType) {
			continue
		}
		base := strings.ToLower(path.Base(m.Path))
		if strings.HasPrefix(base, "cover") {
			return m
		}
	}
	return nil
}

// firstImageOf parses the document at the given path and resolves its
// first <img> (or SVG <image>) back to a manifest image item.
func (b *Book) firstImageOf(docPath string) *ManifestItem {
	data, err := b.ReadPath(docPath)
	if err != nil {
		return nil
	}

	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil
	}

	var src string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if src != "" {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "img":
				src = nodeAttr(n, "src")
			case "image":
				src = nodeAttr(n, "xlink:href")
				if src == "" {
					src = nodeAttr(n, "href")
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if src == "" {
		return nil
	}
	resolved := resolveRelativePath(docPath, src)
	if resolved == "" {
		return nil
	}
	if item, ok := b.byPath[resolved]; ok && isImageMediaType(item.MediaType) {
		return item
	}
	return nil
}

// opfMetas returns the package <meta> elements. Kept on the Book so
// cover detection does not need the raw parse result.
func (b *Book) opfMetas() []opfMeta {
	return b.metas
}

func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType), "image/")
}
