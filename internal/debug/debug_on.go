//go:build debug

// Package debug provides categorized trace logging for the panel.
// Build with -tags debug to enable it.
package debug

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/logging"
)

// Enabled indicates whether debug logging is active
const Enabled = true

// Category represents a debug logging category
type Category string

const (
	APP    Category = "APP"    // Orchestration, wiring, lifecycle
	TREE   Category = "TREE"   // Panel state machine, expansion, reloads
	IO     Category = "IO"     // Gateway requests and driver calls
	BUS    Category = "BUS"    // Event publication
	STORE  Category = "STORE"  // SQLite driver
	UI     Category = "UI"     // Widget gestures and layout
	WATCH  Category = "WATCH"  // Filesystem watcher
	PLUGIN Category = "PLUGIN" // Plugin registry

	// Verbose
	IO_ENTRY  Category = "IO_ENTRY"  // Per-entry driver output
	UI_LAYOUT Category = "UI_LAYOUT" // Per-frame layout
)

var (
	enabledCategories = map[Category]bool{
		APP:       true,
		TREE:      true,
		IO:        true,
		BUS:       true,
		STORE:     true,
		UI:        true,
		WATCH:     true,
		PLUGIN:    true,
		IO_ENTRY:  false,
		UI_LAYOUT: false,
	}
	categoryMu sync.RWMutex
)

func init() {
	// FILESPANEL_DEBUG=TREE,IO or FILESPANEL_DEBUG=all or FILESPANEL_DEBUG=none
	if env := os.Getenv("FILESPANEL_DEBUG"); env != "" {
		applyEnv(env)
	}
}

func applyEnv(env string) {
	categoryMu.Lock()
	defer categoryMu.Unlock()

	env = strings.ToUpper(env)
	switch env {
	case "ALL":
		for cat := range enabledCategories {
			enabledCategories[cat] = true
		}
	case "NONE":
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
	default:
		for cat := range enabledCategories {
			enabledCategories[cat] = false
		}
		for _, cat := range strings.Split(env, ",") {
			enabledCategories[Category(strings.TrimSpace(cat))] = true
		}
	}
}

// Log logs a debug message for the specified category
func Log(cat Category, format string, args ...interface{}) {
	categoryMu.RLock()
	enabled := enabledCategories[cat]
	categoryMu.RUnlock()

	if !enabled {
		return
	}

	logging.Named("debug").WithOptions(zap.AddCallerSkip(1)).
		Info(fmt.Sprintf(format, args...), zap.String("category", string(cat)))
}

// Enable enables a debug category
func Enable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = true
	categoryMu.Unlock()
}

// Disable disables a debug category
func Disable(cat Category) {
	categoryMu.Lock()
	enabledCategories[cat] = false
	categoryMu.Unlock()
}

// IsEnabled returns whether a category is enabled
func IsEnabled(cat Category) bool {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	return enabledCategories[cat]
}

// EnableAll enables all debug categories including verbose ones
func EnableAll() {
	categoryMu.Lock()
	for cat := range enabledCategories {
		enabledCategories[cat] = true
	}
	categoryMu.Unlock()
}

// ListEnabled returns the enabled categories, sorted
func ListEnabled() []Category {
	categoryMu.RLock()
	defer categoryMu.RUnlock()

	var enabled []Category
	for cat, on := range enabledCategories {
		if on {
			enabled = append(enabled, cat)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i] < enabled[j] })
	return enabled
}
