package plugin

import (
	"fmt"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/events"
	"github.com/justyntemme/filespanel/internal/tree"
)

// HiddenFilesID is the registry id of the built-in HiddenFiles plugin.
const HiddenFilesID = "hidden-files"

// HiddenFiles removes dot-entries from every snapshot before it is shown.
type HiddenFiles struct {
	show     bool
	onToggle func(show bool)
	unsub    func()
}

// NewHiddenFiles starts with dot-entries shown or hidden; onToggle, when
// set, is called after every click with the new setting.
func NewHiddenFiles(show bool, onToggle func(show bool)) *HiddenFiles {
	return &HiddenFiles{show: show, onToggle: onToggle}
}

func (h *HiddenFiles) Name() string { return "Hidden files" }

func (h *HiddenFiles) Added(host Host) {
	h.unsub = host.Bus().Subscribe(events.EventBeforeRefresh, func(e events.Event) {
		if !h.show {
			removed := prune(e.(events.BeforeRefresh).Root)
			debug.Log(debug.PLUGIN, "hidden files: pruned %d entries", removed)
		}
	})
}

func (h *HiddenFiles) Clicked() {
	h.show = !h.show
	if h.onToggle != nil {
		h.onToggle(h.show)
	}
}

func (h *HiddenFiles) Content() string {
	state := "hidden"
	if h.show {
		state = "shown"
	}
	return fmt.Sprintf("Dot files are %s. Click the button again to toggle.", state)
}

// Showing reports whether dot-entries are kept.
func (h *HiddenFiles) Showing() bool { return h.show }

// Detach stops pruning snapshots.
func (h *HiddenFiles) Detach() {
	if h.unsub != nil {
		h.unsub()
		h.unsub = nil
	}
}

// prune removes hidden descendants of root and returns how many subtrees
// were cut. The root itself is always kept.
func prune(root *tree.Node) int {
	removed := 0
	tree.Walk(root, func(n *tree.Node, _ int) bool {
		kept := n.Children[:0]
		for _, c := range n.Children {
			if c.IsHidden() {
				removed++
				continue
			}
			kept = append(kept, c)
		}
		n.Children = kept
		return true
	})
	return removed
}
