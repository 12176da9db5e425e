package transform

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// removedElements are stripped from chapter bodies. Document-local
// styles are superseded by the sanitised book stylesheet; the rest is
// scripting and embedding surface a stored fragment must not carry.
const removedElements = "script, style, link, iframe, object, embed, form"

var selfClosingRawPattern = regexp.MustCompile(`(?is)<(script|style)\b([^>]*)/>`)

// normaliseSelfClosing expands self-closing script and style tags.
// The HTML parser treats both as raw text elements and would swallow
// the rest of the document after an XHTML-style <script/>.
func normaliseSelfClosing(data string) string {
	if !selfClosingRawPattern.MatchString(data) {
		return data
	}
	return selfClosingRawPattern.ReplaceAllString(data, "<$1$2></$1>")
}

// cleanBody strips unsafe elements, comments and attributes from the
// parsed document in place.
func cleanBody(doc *goquery.Document) {
	doc.Find(removedElements).Remove()
	for _, n := range doc.Find("body").Nodes {
		scrubNode(n)
	}
}

// scrubNode removes comment nodes and unsafe attributes below n.
func scrubNode(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			scrubNode(c)
		}
		c = next
	}

	if n.Type != html.ElementNode || len(n.Attr) == 0 {
		return
	}
	attrs := n.Attr[:0]
	for _, a := range n.Attr {
		if keepAttr(a) {
			attrs = append(attrs, a)
		}
	}
	n.Attr = attrs
}

// keepAttr rejects event handlers, srcset (the stored asset has one
// rendition) and unsafe URI schemes. data: URIs survive only as inline
// images in src attributes.
func keepAttr(a html.Attribute) bool {
	key := strings.ToLower(a.Key)
	if strings.HasPrefix(key, "on") {
		return false
	}
	if key == "srcset" {
		return false
	}

	val := strings.ToLower(strings.TrimSpace(a.Val))
	if strings.HasPrefix(val, "javascript:") {
		return false
	}
	if strings.HasPrefix(val, "data:") {
		return key == "src" && strings.HasPrefix(val, "data:image/")
	}
	return true
}

// integrationCSS layers reader defaults under the book's own styles:
// images stay inside the column, long words wrap, fonts inherit from
// the page.
const integrationCSS = `.epub-content { font-family: inherit; line-height: 1.6; word-wrap: break-word; }
.epub-content p { margin-bottom: 1rem; }
.epub-content img { max-width: 100%; height: auto; margin: 1rem 0; }
.epub-content h1, .epub-content h2, .epub-content h3, .epub-content h4, .epub-content h5, .epub-content h6 { margin-top: 2rem; margin-bottom: 1rem; font-weight: 600; }
.epub-content blockquote { border-left: 4px solid #888; padding-left: 1rem; margin: 1rem 0; font-style: italic; }
.epub-content code { background-color: rgba(125, 125, 125, 0.12); padding: 0.2rem 0.4rem; border-radius: 3px; font-family: monospace; }
.epub-content pre { background-color: rgba(125, 125, 125, 0.12); padding: 1rem; border-radius: 4px; overflow-x: auto; }`

// wrapChapter assembles the stored fragment: sanitised book CSS, the
// integration defaults, then the cleaned body.
func wrapChapter(stylesheet, body string) string {
	var sb strings.Builder
	sb.Grow(len(stylesheet) + len(integrationCSS) + len(body) + 64)
	sb.WriteString("<div class=\"epub-content\"><style>\n")
	if stylesheet != "" {
		sb.WriteString(stylesheet)
		sb.WriteString("\n")
	}
	sb.WriteString(integrationCSS)
	sb.WriteString("\n</style>\n")
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n</div>")
	return sb.String()
}
