// Package reading implements the chapter reading view: the reduced
// chapter text, scrollable, with chapter-to-chapter navigation.
// The scroll position is saved whenever the reader leaves the chapter.
package reading

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/quirelabs/quire/internal/adapters/driving/tui/keymap"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/messages"
	"github.com/quirelabs/quire/internal/adapters/driving/tui/styles"
	"github.com/quirelabs/quire/internal/core/ports/driving"
)

// View renders one chapter at a time.
type View struct {
	styles *styles.Styles
	reader driving.ReaderService
	keys   *keymap.KeyMap

	page         *driving.ChapterPage
	lines        []string
	scrollOffset int
	loading      bool
	err          error

	width  int
	height int
	ready  bool
}

// NewView creates a reading view.
func NewView(s *styles.Styles, reader driving.ReaderService) *View {
	return &View{
		styles: s,
		reader: reader,
		keys:   keymap.DefaultKeyMap(),
	}
}

// Init implements the view contract. Loading starts with SetChapter.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetChapter starts loading a chapter. Index is 1-based.
func (v *View) SetChapter(bookID string, index int) tea.Cmd {
	v.page = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadChapter(bookID, index)
}

// loadChapter fetches the chapter with its navigation context.
func (v *View) loadChapter(bookID string, index int) tea.Cmd {
	return func() tea.Msg {
		page, err := v.reader.Chapter(context.Background(), bookID, index)
		return messages.ChapterLoaded{Page: page, Err: err}
	}
}

// Update handles messages for the reading view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.ChapterLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.page = msg.Page
		v.reflow()
		v.scrollOffset = v.offsetForPosition(msg.Page.Position)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}

	return v, nil
}

// handleKeyMsg handles keyboard input.
//
//nolint:gocyclo // one case per binding
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	switch {
	case keymap.Matches(key, v.keys.Up):
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}

	case keymap.Matches(key, v.keys.Down):
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}

	case keymap.Matches(key, v.keys.PageUp):
		v.scrollOffset = maxInt(0, v.scrollOffset-v.visibleLineCount())

	case keymap.Matches(key, v.keys.PageDown):
		v.scrollOffset = minInt(v.maxScrollOffset(), v.scrollOffset+v.visibleLineCount())

	case keymap.Matches(key, v.keys.Top):
		v.scrollOffset = 0

	case keymap.Matches(key, v.keys.Bottom):
		v.scrollOffset = v.maxScrollOffset()

	case keymap.Matches(key, v.keys.PrevChapter):
		if v.page != nil && v.page.HasPrev {
			return v, v.changeChapter(v.page.Chapter.Index - 1)
		}

	case keymap.Matches(key, v.keys.NextChapter):
		if v.page != nil && v.page.HasNext {
			return v, v.changeChapter(v.page.Chapter.Index + 1)
		}

	case keymap.Matches(key, v.keys.Back):
		back := func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChapters}
		}
		if save := v.saveProgress(); save != nil {
			return v, tea.Sequence(save, back)
		}
		return v, back

	case keymap.Matches(key, v.keys.Quit):
		quit := func() tea.Msg {
			return messages.Quit{}
		}
		if save := v.saveProgress(); save != nil {
			return v, tea.Sequence(save, quit)
		}
		return v, quit
	}

	return v, nil
}

// changeChapter saves the position in the chapter on screen, then
// loads another chapter of the same book.
func (v *View) changeChapter(index int) tea.Cmd {
	save := v.saveProgress()
	bookID := v.page.Book.ID
	v.loading = true
	return tea.Sequence(save, v.loadChapter(bookID, index))
}

// saveProgress stores the scroll fraction for the chapter on screen.
// Returns nil when no chapter is loaded.
func (v *View) saveProgress() tea.Cmd {
	if v.page == nil {
		return nil
	}
	bookID := v.page.Book.ID
	chapter := v.page.Chapter.Index
	position := v.position()
	return func() tea.Msg {
		err := v.reader.UpdateProgress(context.Background(), bookID, chapter, position)
		return messages.ProgressSaved{BookID: bookID, Err: err}
	}
}

// View renders the chapter.
func (v *View) View() string {
	if !v.ready {
		return "Loading..."
	}

	var b strings.Builder

	if v.page == nil {
		if v.err != nil {
			b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		} else {
			b.WriteString(v.styles.Muted.Render("Loading chapter..."))
		}
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	title := v.page.Chapter.Title
	if title == "" {
		title = fmt.Sprintf("Chapter %d", v.page.Chapter.Index)
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf(
		"%s · chapter %d of %d", v.page.Book.Title, v.page.Chapter.Index, v.page.Total,
	)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading chapter..."))
		b.WriteString("\n")

	case v.err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")

	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(empty chapter)"))
		b.WriteString("\n")

	default:
		end := minInt(v.scrollOffset+v.visibleLineCount(), len(v.lines))
		for i := v.scrollOffset; i < end; i++ {
			b.WriteString("  ")
			b.WriteString(v.lines[i])
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.renderStatus())
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderStatus renders the position within the chapter.
func (v *View) renderStatus() string {
	pct := int(v.position()*100 + 0.5)
	status := fmt.Sprintf("%d%%", pct)
	if v.scrollOffset > 0 {
		status += " ↑"
	}
	if v.scrollOffset < v.maxScrollOffset() {
		status += " ↓"
	}
	return v.styles.Muted.Render(status)
}

// renderHelp renders the key hints. The bracket keys are shown bare,
// bracketing them like the other views would double them up.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("↑/↓ scroll  [/h previous  ]/l next  esc contents  q quit")
}

// reflow wraps the chapter text to the current width.
func (v *View) reflow() {
	if v.page == nil {
		v.lines = nil
		return
	}
	width := v.width - 4
	if width < 20 {
		width = 20
	}
	v.lines = wrapText(v.page.Chapter.Text, width)
}

// position returns the scroll fraction in [0, 1].
func (v *View) position() float64 {
	max := v.maxScrollOffset()
	if max <= 0 {
		return 0
	}
	f := float64(v.scrollOffset) / float64(max)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// offsetForPosition converts a stored fraction back to a line offset.
func (v *View) offsetForPosition(position float64) int {
	max := v.maxScrollOffset()
	offset := int(math.Round(position * float64(max)))
	if offset < 0 {
		return 0
	}
	if offset > max {
		return max
	}
	return offset
}

// maxScrollOffset is the offset at which the last line is visible.
func (v *View) maxScrollOffset() int {
	max := len(v.lines) - v.visibleLineCount()
	if max < 0 {
		return 0
	}
	return max
}

// visibleLineCount returns how many text lines fit in the current height.
func (v *View) visibleLineCount() int {
	// Header, meta, blank lines, status and help eat rows.
	reserved := 6
	count := v.height - reserved
	if count < 1 {
		count = 1
	}
	return count
}

// SetDimensions sets the terminal dimensions and rewraps the text,
// keeping the reader at the same relative position.
func (v *View) SetDimensions(width, height int) {
	pos := v.position()
	v.width = width
	v.height = height
	v.ready = true
	if v.page != nil {
		v.reflow()
		v.scrollOffset = v.offsetForPosition(pos)
	}
}

// Page returns the chapter on screen.
func (v *View) Page() *driving.ChapterPage {
	return v.page
}

// ScrollOffset returns the current scroll offset.
func (v *View) ScrollOffset() int {
	return v.scrollOffset
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}

// wrapText wraps plain text to the given width, keeping paragraph
// breaks. Paragraphs are separated by blank lines in the reduced text.
func wrapText(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	var lines []string
	for i, para := range strings.Split(text, "\n\n") {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

// wrapParagraph greedily fills lines with whole words. Words wider
// than the view are split hard.
func wrapParagraph(para string, width int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := ""
	for _, word := range words {
		for utf8.RuneCountInString(word) > width {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case line == "":
			line = word
		case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
