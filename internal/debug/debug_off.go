//go:build !debug

// Package debug provides categorized trace logging for the panel.
// This is the no-op version for release builds.
package debug

// Enabled indicates whether debug logging is active
const Enabled = false

// Category represents a debug logging category
type Category string

const (
	APP       Category = "APP"
	TREE      Category = "TREE"
	IO        Category = "IO"
	BUS       Category = "BUS"
	STORE     Category = "STORE"
	UI        Category = "UI"
	WATCH     Category = "WATCH"
	PLUGIN    Category = "PLUGIN"
	IO_ENTRY  Category = "IO_ENTRY"
	UI_LAYOUT Category = "UI_LAYOUT"
)

// Log is a no-op in release builds
func Log(cat Category, format string, args ...interface{}) {}

// Enable is a no-op in release builds
func Enable(cat Category) {}

// Disable is a no-op in release builds
func Disable(cat Category) {}

// IsEnabled always returns false in release builds
func IsEnabled(cat Category) bool { return false }

// EnableAll is a no-op in release builds
func EnableAll() {}

// ListEnabled returns nil in release builds
func ListEnabled() []Category { return nil }
