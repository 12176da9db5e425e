package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/quirelabs/quire/internal/epub"
)

// chromeSelectors are owned by the reader shell; book rules targeting
// them are dropped rather than namespaced.
var chromeSelectors = []string{"body", "html", ".container", ".navbar"}

var (
	cssCommentPattern     = regexp.MustCompile(`(?s)/\*.*?\*/`)
	positionChromePattern = regexp.MustCompile(`(?i)^position\s*:\s*(fixed|absolute)\b`)
	cssURLPattern         = regexp.MustCompile(`(?i)url\(\s*['"]?([^'")]+?)['"]?\s*\)`)
)

// buildStylesheet concatenates and sanitises every stylesheet the
// manifest declares. Unreadable sheets are skipped; a book with broken
// CSS is still readable.
func buildStylesheet(book *epub.Book, index *assetIndex) string {
	var parts []string
	for _, sheet := range book.Stylesheets() {
		data, err := book.ReadItem(sheet)
		if err != nil {
			continue
		}
		if s := sanitiseCSS(string(data), index.lookup); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// sanitiseCSS rewrites one stylesheet for embedding: at-rules that
// load external resources or reclaim the page are removed, remaining
// rules are namespaced under .epub-content, and url() references are
// mapped to stored assets. lookup resolves an image reference to its
// public URL.
func sanitiseCSS(css string, lookup func(ref string) (string, bool)) string {
	css = cssCommentPattern.ReplaceAllString(css, "")
	var sb strings.Builder
	writeRules(&sb, css, lookup)
	return strings.TrimSpace(sb.String())
}

// writeRules scans a rule list (a stylesheet or an at-rule body) and
// writes the sanitised form. Statement at-rules (@import, @charset,
// @namespace) are dropped.
func writeRules(sb *strings.Builder, css string, lookup func(string) (string, bool)) {
	for len(css) > 0 {
		brace := strings.IndexByte(css, '{')
		if brace < 0 {
			return
		}
		if semi := strings.IndexByte(css, ';'); semi >= 0 && semi < brace {
			css = css[semi+1:]
			continue
		}

		header := collapseSpace(css[:brace])
		body, rest, ok := cutBlock(css[brace:])
		if !ok {
			return
		}
		css = rest

		if header == "" {
			continue
		}
		if strings.HasPrefix(header, "@") {
			writeAtRule(sb, header, body, lookup)
			continue
		}
		writeRule(sb, header, body, lookup)
	}
}

// cutBlock splits css, which must start at '{', into the block body
// and the remainder, honouring nested braces.
func cutBlock(css string) (body, rest string, ok bool) {
	depth := 0
	for i := 0; i < len(css); i++ {
		switch css[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return css[1:i], css[i+1:], true
			}
		}
	}
	return "", "", false
}

func writeAtRule(sb *strings.Builder, header, body string, lookup func(string) (string, bool)) {
	name := strings.ToLower(strings.Fields(header)[0])
	switch name {
	case "@media", "@supports":
		var inner strings.Builder
		writeRules(&inner, body, lookup)
		if inner.Len() > 0 {
			fmt.Fprintf(sb, "%s {\n%s}\n", header, inner.String())
		}
	case "@keyframes", "@-webkit-keyframes":
		fmt.Fprintf(sb, "%s {%s}\n", header, body)
	default:
		// @import, @font-face, @page and anything else that reaches
		// outside the fragment.
	}
}

func writeRule(sb *strings.Builder, header, body string, lookup func(string) (string, bool)) {
	var selectors []string
	for _, sel := range strings.Split(header, ",") {
		sel = collapseSpace(sel)
		if sel == "" || targetsPageChrome(sel) {
			continue
		}
		selectors = append(selectors, ".epub-content "+sel)
	}
	if len(selectors) == 0 {
		return
	}

	decls := sanitiseDeclarations(body, lookup)
	if len(decls) == 0 {
		return
	}

	sb.WriteString(strings.Join(selectors, ", "))
	sb.WriteString(" { ")
	sb.WriteString(strings.Join(decls, "; "))
	sb.WriteString("; }\n")
}

// targetsPageChrome reports whether the selector's subject is one of
// the chrome selectors, alone or followed by a combinator or suffix.
func targetsPageChrome(sel string) bool {
	lower := strings.ToLower(sel)
	for _, chrome := range chromeSelectors {
		if !strings.HasPrefix(lower, chrome) {
			continue
		}
		rest := lower[len(chrome):]
		if rest == "" || strings.ContainsAny(rest[:1], ":.>[+~ ") {
			return true
		}
	}
	return false
}

// sanitiseDeclarations filters a rule body: position values that
// escape the reading column are dropped, and declarations whose url()
// targets were not extracted as assets are dropped whole.
func sanitiseDeclarations(body string, lookup func(string) (string, bool)) []string {
	var decls []string
	for _, decl := range strings.Split(body, ";") {
		decl = collapseSpace(decl)
		if decl == "" {
			continue
		}
		if positionChromePattern.MatchString(decl) {
			continue
		}
		if strings.Contains(strings.ToLower(decl), "url(") {
			rewritten, ok := rewriteCSSURLs(decl, lookup)
			if !ok {
				continue
			}
			decl = rewritten
		}
		decls = append(decls, decl)
	}
	return decls
}

// rewriteCSSURLs maps every url() in the declaration to a public asset
// URL. One unresolvable target discards the whole declaration.
func rewriteCSSURLs(decl string, lookup func(string) (string, bool)) (string, bool) {
	resolved := true
	rewritten := cssURLPattern.ReplaceAllStringFunc(decl, func(m string) string {
		sub := cssURLPattern.FindStringSubmatch(m)
		u, ok := lookup(strings.TrimSpace(sub[1]))
		if !ok {
			resolved = false
			return m
		}
		return fmt.Sprintf("url(%s)", u)
	})
	if !resolved {
		return "", false
	}
	return rewritten, true
}
