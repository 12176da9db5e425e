package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
	}{
		{
			name:     "paragraphs become lines",
			fragment: `<p>First paragraph.</p><p>Second paragraph.</p>`,
			want:     "First paragraph.\n\nSecond paragraph.",
		},
		{
			name:     "headings and breaks",
			fragment: `<h1>Title</h1>Line one<br/>Line two`,
			want:     "Title\nLine one\nLine two",
		},
		{
			name:     "list items get markers",
			fragment: `<ul><li>alpha</li><li>beta</li></ul>`,
			want:     "- alpha\n\n- beta",
		},
		{
			name:     "script and style skipped",
			fragment: `<p>keep</p><script>var x = 1;</script><style>p { color: red; }</style>`,
			want:     "keep",
		},
		{
			name:     "head skipped",
			fragment: `<head><title>Doc Title</title></head><body><p>body text</p></body>`,
			want:     "body text",
		},
		{
			name:     "svg skipped",
			fragment: `<p>before</p><svg><text>vector text</text></svg><p>after</p>`,
			want:     "before\n\nafter",
		},
		{
			name:     "entities decoded",
			fragment: `<p>Tom &amp; Jerry&nbsp;&mdash;&nbsp;friends</p>`,
			want:     "Tom & Jerry — friends",
		},
		{
			name:     "whitespace collapsed",
			fragment: "<p>spaced    out\t\ttext</p>",
			want:     "spaced out text",
		},
		{
			name:     "self closing script does not swallow",
			fragment: `<script src="app.js"/><p>still here</p>`,
			want:     "still here",
		},
		{
			name:     "empty",
			fragment: "",
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.fragment))
		})
	}
}

// TestReduce_NestedBlocks keeps nested block structure readable
// without piling up blank lines.
func TestReduce_NestedBlocks(t *testing.T) {
	fragment := `<div><div><p>deep text</p></div></div>`
	assert.Equal(t, "deep text", Reduce(fragment))
}

func TestReduceChapter_TitleRemoval(t *testing.T) {
	body := "<h2>The Long Road</h2><p>" + strings.Repeat("The road went ever on and on. ", 10) + "</p>"

	text := ReduceChapter(body, "The Long Road")
	assert.NotContains(t, text, "The Long Road")
	assert.Contains(t, text, "The road went ever on")
}

// TestReduceChapter_TitleCaseVariants removes shouted headings too.
func TestReduceChapter_TitleCaseVariants(t *testing.T) {
	body := "<h2>THE LONG ROAD</h2><p>" + strings.Repeat("Step after step after step. ", 10) + "</p>"

	text := ReduceChapter(body, "The Long Road")
	assert.NotContains(t, text, "THE LONG ROAD")
	assert.Contains(t, text, "Step after step")
}

// TestReduceChapter_DebrisLines drops separator junk but keeps short
// meaningful lines.
func TestReduceChapter_DebrisLines(t *testing.T) {
	body := "<p>* * *</p><p>IV</p><p>" + strings.Repeat("Content sentence here. ", 10) + "</p>"

	text := ReduceChapter(body, "")
	assert.NotContains(t, text, "* * *")
	assert.Contains(t, text, "IV")
	assert.Contains(t, text, "Content sentence here.")
}

// TestReduceChapter_AggressiveFallback rescues chapters the tokenizer
// pass cannot read.
func TestReduceChapter_AggressiveFallback(t *testing.T) {
	// A head without body: the tokenizer skips the head subtree, and
	// an unclosed head swallows everything, so the strict pass yields
	// nothing.
	long := strings.Repeat("Recovered sentence with words. ", 10)
	fragment := "<head><p>" + long + "</p>"

	text := ReduceChapter(fragment, "")
	assert.Contains(t, text, "Recovered sentence with words.")
}

func TestStripChapterTitle_OwnParagraph(t *testing.T) {
	text := "* Note *\n\nMy Chapter\n\nActual content follows here."
	got := stripChapterTitle(text, "My Chapter")
	assert.Equal(t, "* Note *\n\nActual content follows here.", got)
}

func TestStripChapterTitle_NoMatch(t *testing.T) {
	text := "Completely unrelated content."
	assert.Equal(t, text, stripChapterTitle(text, "Ghost Title"))
	assert.Equal(t, text, stripChapterTitle(text, ""))
}

func TestFilterDebris(t *testing.T) {
	in := "Real line of text\n***\n42\n\nAnother real line"
	got := filterDebris(in)
	assert.Equal(t, "Real line of text\n\n42\n\nAnother real line", got)
}
