package transform

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// reduceSkipTags contribute no text.
var reduceSkipTags = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Head:     true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Svg:      true,
}

// reduceBlockTags emit line breaks around their content.
var reduceBlockTags = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Tr:         true,
	atom.Br:         true,
	atom.Blockquote: true,
	atom.Section:    true,
	atom.Article:    true,
}

var multiNewlinePattern = regexp.MustCompile(`\n{3,}`)

// Reduce converts an HTML fragment to plain text. Block elements
// become line breaks, list items get a dash marker, entities are
// decoded, and whitespace is collapsed. Script, style, head, noscript,
// iframe and svg subtrees are skipped.
func Reduce(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(normaliseSelfClosing(fragment)))
	var sb strings.Builder
	skipDepth := 0
	listDepth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// Tokenizers end every fragment with an error; io.EOF is
			// the normal case and anything else still yields the text
			// gathered so far.
			return tidyText(sb.String())

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if reduceSkipTags[a] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if a == atom.Ul || a == atom.Ol {
				listDepth++
			}
			if reduceBlockTags[a] {
				sb.WriteByte('\n')
				if a == atom.Li && listDepth > 0 {
					sb.WriteString("- ")
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if reduceSkipTags[a] {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}
			if (a == atom.Ul || a == atom.Ol) && listDepth > 0 {
				listDepth--
			}
			if reduceBlockTags[a] && a != atom.Br {
				sb.WriteByte('\n')
			}

		case html.TextToken:
			if skipDepth == 0 {
				sb.Write(z.Text())
			}
		}
	}
}

// ReduceChapter reduces a chapter fragment for export, search and the
// terminal reader: the general reduction plus debris filtering and
// removal of the chapter title, which the renderers print themselves.
// When the tokenizer pass yields almost nothing, a crude tag strip is
// tried instead, which rescues short but real chapters with heavily
// nested markup.
func ReduceChapter(fragment, title string) string {
	text := stripChapterTitle(filterDebris(Reduce(fragment)), title)
	if utf8.RuneCountInString(text) < minChapterText {
		alt := stripChapterTitle(filterDebris(stripTags(fragment)), title)
		if utf8.RuneCountInString(alt) > utf8.RuneCountInString(text) {
			return alt
		}
	}
	return text
}

// tidyText collapses horizontal whitespace within lines and vertical
// runs across them.
func tidyText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = collapseSpace(line)
	}
	out := strings.Join(lines, "\n")
	out = multiNewlinePattern.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

// filterDebris drops page-number and separator debris and joins the
// surviving lines as paragraphs.
func filterDebris(text string) string {
	var keep []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= 5 && !containsAlnum(line) {
			continue
		}
		keep = append(keep, line)
	}
	return strings.Join(keep, "\n\n")
}

func containsAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// stripChapterTitle removes the leading occurrence of the title so the
// PDF heading is not doubled. Case variants cover books that shout
// their headings.
func stripChapterTitle(text, title string) string {
	title = strings.TrimSpace(title)
	if title == "" || text == "" {
		return text
	}

	variants := titleVariants(title)
	for _, v := range variants {
		if strings.HasPrefix(text, v) {
			return strings.TrimSpace(text[len(v):])
		}
	}

	// The title may sit in its own paragraph past leading debris.
	paras := strings.Split(text, "\n\n")
	for i, p := range paras {
		if matchesVariant(strings.TrimSpace(p), variants) {
			rest := make([]string, 0, len(paras)-1)
			rest = append(rest, paras[:i]...)
			rest = append(rest, paras[i+1:]...)
			return strings.TrimSpace(strings.Join(rest, "\n\n"))
		}
	}
	return text
}

func titleVariants(title string) []string {
	return []string{
		title,
		strings.ToUpper(title),
		strings.ToLower(title),
		cases.Title(language.English).String(title),
	}
}

func matchesVariant(s string, variants []string) bool {
	for _, v := range variants {
		if s == v {
			return true
		}
	}
	return false
}

var (
	styleBlockPattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	tagPattern         = regexp.MustCompile(`<[^>]+>`)
)

// stripTags is the aggressive fallback: shed style and script blocks,
// then every tag, then entities.
func stripTags(fragment string) string {
	s := styleBlockPattern.ReplaceAllString(fragment, "")
	s = scriptBlockPattern.ReplaceAllString(s, "")
	s = cssCommentPattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, "\n")
	return html.UnescapeString(s)
}
