// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Back returns to the previous view.
	Back key.Binding

	// Up navigates up in a list, or scrolls the page up.
	Up key.Binding

	// Down navigates down in a list, or scrolls the page down.
	Down key.Binding

	// Select confirms a selection.
	Select key.Binding

	// PrevChapter jumps to the previous chapter while reading.
	PrevChapter key.Binding

	// NextChapter jumps to the next chapter while reading.
	NextChapter key.Binding

	// PageUp scrolls one screen up while reading.
	PageUp key.Binding

	// PageDown scrolls one screen down while reading.
	PageDown key.Binding

	// Top jumps to the start of the chapter.
	Top key.Binding

	// Bottom jumps to the end of the chapter.
	Bottom key.Binding

	// Reload refreshes the current listing.
	Reload key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		PrevChapter: key.NewBinding(
			key.WithKeys("[", "h"),
			key.WithHelp("[/h", "previous chapter"),
		),
		NextChapter: key.NewBinding(
			key.WithKeys("]", "l"),
			key.WithHelp("]/l", "next chapter"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup/b", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn/f", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "start"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "end"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
	}
}

// ShortHelp returns a short list of keybindings for footers.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Back}
}

// ReadingHelp returns keybindings for the reading view.
func (k *KeyMap) ReadingHelp() []key.Binding {
	return []key.Binding{k.PrevChapter, k.NextChapter, k.Up, k.Back}
}

// FullHelp returns the full list of keybindings grouped for display.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.PrevChapter, k.NextChapter, k.PageUp, k.PageDown},
		{k.Back, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
