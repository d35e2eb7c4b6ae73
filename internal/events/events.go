// Package events carries panel notifications between the panel, the plugins
// and the shell. Delivery is synchronous and in subscription order.
package events

import (
	"github.com/justyntemme/filespanel/internal/tree"
)

// EventType names a kind of event
type EventType string

const (
	EventItemClicked           EventType = "item_clicked"
	EventItemDoubleClicked     EventType = "item_double_clicked"
	EventBeforeRefresh         EventType = "before_refresh"
	EventProjectOpened         EventType = "project_opened"
	EventOpenRequested         EventType = "open_requested"
	EventItemMoved             EventType = "item_moved"
	EventMoveFailed            EventType = "move_failed"
	EventPluginAdded           EventType = "plugin_added"
	EventConfigDialogRequested EventType = "config_dialog_requested"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// ItemClicked is published after the panel processed a click.
type ItemClicked struct {
	Item tree.Item
}

// ItemDoubleClicked is published for every double-click.
type ItemDoubleClicked struct {
	Item tree.Item
}

// BeforeRefresh is published with the freshly restored root before the
// widget reloads. Handlers may prune or reorder Root's children.
type BeforeRefresh struct {
	Root *tree.Node
}

// ProjectOpened switches the panel to a new project root.
type ProjectOpened struct {
	Root string
}

// OpenRequested asks the shell to open a file in a viewer or tab.
type OpenRequested struct {
	Item tree.Item
}

// ItemMoved is published when the backend confirmed a move or rename.
type ItemMoved struct {
	Item    tree.Item
	OldPath string
	NewPath string
}

// MoveFailed is published when the backend rejected a move or rename.
type MoveFailed struct {
	Item    tree.Item
	NewPath string
	Err     error
}

// PluginAdded is published once a plugin joined the registry.
type PluginAdded struct {
	ID string
}

// ConfigDialogRequested asks the shell to show a plugin's settings.
type ConfigDialogRequested struct {
	PluginID string
	Content  string
}

func (ItemClicked) Type() EventType           { return EventItemClicked }
func (ItemDoubleClicked) Type() EventType     { return EventItemDoubleClicked }
func (BeforeRefresh) Type() EventType         { return EventBeforeRefresh }
func (ProjectOpened) Type() EventType         { return EventProjectOpened }
func (OpenRequested) Type() EventType         { return EventOpenRequested }
func (ItemMoved) Type() EventType             { return EventItemMoved }
func (MoveFailed) Type() EventType            { return EventMoveFailed }
func (PluginAdded) Type() EventType           { return EventPluginAdded }
func (ConfigDialogRequested) Type() EventType { return EventConfigDialogRequested }
