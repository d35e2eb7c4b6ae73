//go:build !darwin

package config

// DefaultHotkeys returns the default keyboard shortcuts for Windows/Linux
func DefaultHotkeys() HotkeysConfig {
	return HotkeysConfig{
		Rename:       "F2",
		Refresh:      "F5",
		Escape:       "Escape",
		Open:         "Enter",
		ToggleHidden: "Ctrl+H",
	}
}
