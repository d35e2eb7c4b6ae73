package config

import (
	"strings"

	"gioui.org/io/event"
	"gioui.org/io/key"
)

// Hotkey represents a parsed keyboard shortcut
type Hotkey struct {
	Key       key.Name
	Modifiers key.Modifiers
}

// ParseHotkey parses a hotkey string like "Ctrl+Shift+N". The last
// non-modifier part is the key.
func ParseHotkey(s string) Hotkey {
	var h Hotkey
	if strings.TrimSpace(s) == "" {
		return h
	}

	var raw string
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		switch strings.ToLower(part) {
		case "ctrl", "control":
			h.Modifiers |= key.ModCtrl
		case "shift":
			h.Modifiers |= key.ModShift
		case "alt", "option":
			h.Modifiers |= key.ModAlt
		case "cmd", "command":
			h.Modifiers |= key.ModCommand
		case "super", "meta", "win", "windows":
			h.Modifiers |= key.ModSuper
		default:
			raw = part
		}
	}

	h.Key = parseKeyName(raw)
	// Gio reports the shifted character, so Shift+1 arrives as "!".
	if h.Modifiers.Contain(key.ModShift) {
		if shifted, ok := shiftedNumbers[string(h.Key)]; ok {
			h.Key = key.Name(shifted)
		}
	}
	return h
}

// shiftedNumbers is the US layout. Punctuation is configured as the shifted
// character directly (">" not ".").
var shiftedNumbers = map[string]string{
	"1": "!", "2": "@", "3": "#", "4": "$", "5": "%",
	"6": "^", "7": "&", "8": "*", "9": "(", "0": ")",
}

// unshiftedNumbers is the reverse mapping for display purposes
var unshiftedNumbers = map[string]string{
	"!": "1", "@": "2", "#": "3", "$": "4", "%": "5",
	"^": "6", "&": "7", "*": "8", "(": "9", ")": "0",
}

var namedKeys = map[string]key.Name{
	"f1": key.NameF1, "f2": key.NameF2, "f3": key.NameF3, "f4": key.NameF4,
	"f5": key.NameF5, "f6": key.NameF6, "f7": key.NameF7, "f8": key.NameF8,
	"f9": key.NameF9, "f10": key.NameF10, "f11": key.NameF11, "f12": key.NameF12,

	"up": key.NameUpArrow, "uparrow": key.NameUpArrow,
	"down": key.NameDownArrow, "downarrow": key.NameDownArrow,
	"left": key.NameLeftArrow, "leftarrow": key.NameLeftArrow,
	"right": key.NameRightArrow, "rightarrow": key.NameRightArrow,
	"home": key.NameHome, "end": key.NameEnd,
	"pageup": key.NamePageUp, "pgup": key.NamePageUp,
	"pagedown": key.NamePageDown, "pgdn": key.NamePageDown,

	"enter": key.NameReturn, "return": key.NameReturn,
	"tab": key.NameTab, "space": key.NameSpace,
	"backspace": key.NameDeleteBackward,
	"delete": key.NameDeleteForward, "del": key.NameDeleteForward,
	"escape": key.NameEscape, "esc": key.NameEscape,
}

// parseKeyName converts a key string to Gio's key.Name. Single characters
// are upper-cased; unknown names are passed through.
func parseKeyName(s string) key.Name {
	if len(s) == 1 {
		return key.Name(strings.ToUpper(s))
	}
	if n, ok := namedKeys[strings.ToLower(s)]; ok {
		return n
	}
	return key.Name(s)
}

// Matches reports whether k is this hotkey. Modifiers must match exactly so
// Ctrl+H and Ctrl+Shift+H stay distinct.
func (h Hotkey) Matches(k key.Event) bool {
	return h.Key != "" && k.Name == h.Key && k.Modifiers == h.Modifiers
}

func (h Hotkey) IsEmpty() bool {
	return h.Key == ""
}

var modifierNames = []struct {
	mod  key.Modifiers
	name string
}{
	{key.ModCtrl, "Ctrl"},
	{key.ModCommand, "Cmd"},
	{key.ModShift, "Shift"},
	{key.ModAlt, "Alt"},
	{key.ModSuper, "Super"},
}

// String renders the hotkey the way ParseHotkey reads it.
func (h Hotkey) String() string {
	if h.Key == "" {
		return ""
	}
	var parts []string
	for _, m := range modifierNames {
		if h.Modifiers.Contain(m.mod) {
			parts = append(parts, m.name)
		}
	}
	name := string(h.Key)
	if h.Modifiers.Contain(key.ModShift) {
		if original, ok := unshiftedNumbers[name]; ok {
			name = original
		}
	}
	return strings.Join(append(parts, name), "+")
}

// Filter returns a key.Filter that matches this hotkey
func (h Hotkey) Filter(focus event.Tag) key.Filter {
	return key.Filter{
		Focus:    focus,
		Name:     h.Key,
		Required: h.Modifiers,
	}
}

// HotkeysConfig holds the configurable shortcuts, as strings like "Ctrl+R"
type HotkeysConfig struct {
	Rename       string `json:"rename"`
	Refresh      string `json:"refresh"`
	Escape       string `json:"escape"`
	Open         string `json:"open"`
	ToggleHidden string `json:"toggleHidden"`
}

// HotkeyMatcher provides efficient hotkey matching from config
type HotkeyMatcher struct {
	Rename       Hotkey
	Refresh      Hotkey
	Escape       Hotkey
	Open         Hotkey
	ToggleHidden Hotkey
}

// NewHotkeyMatcher creates a matcher from config
func NewHotkeyMatcher(cfg HotkeysConfig) *HotkeyMatcher {
	return &HotkeyMatcher{
		Rename:       ParseHotkey(cfg.Rename),
		Refresh:      ParseHotkey(cfg.Refresh),
		Escape:       ParseHotkey(cfg.Escape),
		Open:         ParseHotkey(cfg.Open),
		ToggleHidden: ParseHotkey(cfg.ToggleHidden),
	}
}

// Filters returns a key.Filter per configured hotkey.
func (m *HotkeyMatcher) Filters(focus event.Tag) []event.Filter {
	var out []event.Filter
	for _, h := range []Hotkey{m.Rename, m.Refresh, m.Escape, m.Open, m.ToggleHidden} {
		if !h.IsEmpty() {
			out = append(out, h.Filter(focus))
		}
	}
	return out
}
