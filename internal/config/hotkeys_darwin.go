//go:build darwin

package config

// DefaultHotkeys returns the default keyboard shortcuts for macOS
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		Rename:       "Return",
		Refresh:      "Cmd+R",
		Escape:       "Escape",
		Open:         "Cmd+Down",
		ToggleHidden: "Cmd+Shift+H",
	}
}
