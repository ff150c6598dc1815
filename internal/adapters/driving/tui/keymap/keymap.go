// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	Quit   key.Binding
	Help   key.Binding
	Back   key.Binding
	Submit key.Binding
	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// NewQuery returns focus to the query input.
	NewQuery key.Binding

	// Explain toggles retrieval diagnostics.
	Explain key.Binding

	// Sync syncs the selected repository; SyncAll syncs every one.
	Sync    key.Binding
	SyncAll key.Binding

	// Refresh reloads the current list.
	Refresh key.Binding

	// Remove deletes the selected document from the index.
	Remove key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "retrieve")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		NewQuery: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new query")),
		Explain:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "explain")),
		Sync:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sync")),
		SyncAll:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sync all")),
		Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Remove:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// ResultsHelp returns keybindings for a displayed retrieval result.
func (k *KeyMap) ResultsHelp() []key.Binding {
	return []key.Binding{k.NewQuery, k.Explain, k.Up, k.Back}
}

// SourcesHelp returns keybindings for the sources view.
func (k *KeyMap) SourcesHelp() []key.Binding {
	return []key.Binding{k.Sync, k.SyncAll, k.Refresh, k.Back}
}

// DocumentsHelp returns keybindings for the documents view.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Select, k.Remove, k.Refresh, k.Back}
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
