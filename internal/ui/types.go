package ui

import "github.com/justyntemme/filespanel/internal/tree"

type UIAction int

const (
	ActionNone UIAction = iota
	ActionClick
	ActionDoubleClick
	ActionDrop         // Key dropped on DestKey with Mode
	ActionRename       // Editor submitted Text for Key
	ActionCancelRename // Editor on Key dismissed
	ActionStartRename  // Rename hotkey on the focused row
	ActionRefresh
	ActionToggleHidden
)

var actionNames = map[UIAction]string{
	ActionNone:         "none",
	ActionClick:        "click",
	ActionDoubleClick:  "double-click",
	ActionDrop:         "drop",
	ActionRename:       "rename",
	ActionCancelRename: "cancel-rename",
	ActionStartRename:  "start-rename",
	ActionRefresh:      "refresh",
	ActionToggleHidden: "toggle-hidden",
}

func (a UIAction) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "unknown"
}

// UIEvent is a user gesture the shell forwards to the panel.
type UIEvent struct {
	Action  UIAction
	Key     string
	DestKey string
	Mode    tree.HitMode
	Text    string
}
