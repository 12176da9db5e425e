package transform

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/quirelabs/quire/internal/epub"
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// chapterTargets records where each kept spine document landed so the
// second pass can rewrite links, including references to chapters
// later in the spine.
type chapterTargets struct {
	byPath map[string]int
	byBase map[string]int
}

func newChapterTargets() *chapterTargets {
	return &chapterTargets{
		byPath: make(map[string]int),
		byBase: make(map[string]int),
	}
}

func (t *chapterTargets) add(zipPath string, index int) {
	t.byPath[zipPath] = index
	base := strings.ToLower(path.Base(zipPath))
	if _, seen := t.byBase[base]; !seen {
		t.byBase[base] = index
	}
}

// find resolves a fragment-stripped href from the document at fromPath
// to a chapter index.
func (t *chapterTargets) find(fromPath, href string) (int, bool) {
	if resolved := epub.ResolvePath(fromPath, href); resolved != "" {
		if idx, ok := t.byPath[resolved]; ok {
			return idx, true
		}
	}
	if idx, ok := t.byPath[href]; ok {
		return idx, true
	}
	if idx, ok := t.byBase[strings.ToLower(path.Base(href))]; ok {
		return idx, true
	}
	return 0, false
}

// rewriteLinks is the second pass over a kept chapter: anchors to kept
// chapters become reader URLs, intra-page and dangling anchors are
// unwrapped, external links open in a new tab.
func rewriteLinks(doc *goquery.Document, docPath string, targets *chapterTargets, chapterURL func(index int) string) {
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)

		switch {
		case href == "" || strings.HasPrefix(href, "#"):
			// Anchors into the same document are meaningless after
			// re-pagination.
			unwrap(s)
		case schemePattern.MatchString(href):
			if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
				s.SetAttr("target", "_blank")
				s.SetAttr("rel", "noopener")
			}
		default:
			target := href
			if i := strings.IndexByte(target, '#'); i >= 0 {
				target = target[:i]
			}
			if decoded, err := url.PathUnescape(target); err == nil {
				target = decoded
			}
			if idx, found := targets.find(docPath, target); found {
				s.SetAttr("href", chapterURL(idx))
				return
			}
			unwrap(s)
		}
	})
}

// unwrap replaces the selection with its inner content.
func unwrap(s *goquery.Selection) {
	inner, err := s.Html()
	if err != nil {
		s.Remove()
		return
	}
	s.ReplaceWithHtml(inner)
}
