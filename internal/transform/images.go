package transform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// rewriteImages maps every image reference to its stored asset URL.
// Unresolvable images are removed; a broken image is worse than none.
func rewriteImages(doc *goquery.Document, index *assetIndex) {
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		rewriteImageAttr(s, "src", index)
	})
	// Inline SVG <image>; xlink:href parses with key "href".
	doc.Find("image").Each(func(_ int, s *goquery.Selection) {
		rewriteImageAttr(s, "href", index)
	})
}

func rewriteImageAttr(s *goquery.Selection, attr string, index *assetIndex) {
	ref := strings.TrimSpace(s.AttrOr(attr, ""))
	if ref == "" {
		s.Remove()
		return
	}
	if strings.HasPrefix(strings.ToLower(ref), "data:image/") {
		return
	}
	if u, ok := index.lookup(ref); ok {
		s.SetAttr(attr, u)
		return
	}
	s.Remove()
}
