package ui

import (
	"time"

	"github.com/justyntemme/filespanel/internal/tree"
)

// entry is the widget's own copy of a node. It can run ahead of the panel's
// tree while a drop waits for the backend.
type entry struct {
	key      string
	path     string
	name     string
	isFolder bool
	expanded bool
	size     int64
	modTime  time.Time

	parent   *entry
	children []*entry
}

// row is one visible line of the tree.
type row struct {
	e     *entry
	depth int
}

func mirror(n *tree.Node, parent *entry) *entry {
	e := &entry{
		key:      n.Key,
		path:     n.Path,
		name:     n.Name,
		isFolder: n.IsFolder,
		expanded: n.Expanded,
		size:     n.Size,
		modTime:  n.ModTime,
		parent:   parent,
	}
	if len(n.Children) > 0 {
		e.children = make([]*entry, 0, len(n.Children))
		for _, c := range n.Children {
			e.children = append(e.children, mirror(c, e))
		}
	}
	return e
}

func indexEntries(root *entry) map[string]*entry {
	idx := make(map[string]*entry)
	var visit func(e *entry)
	visit = func(e *entry) {
		idx[e.key] = e
		for _, c := range e.children {
			visit(c)
		}
	}
	if root != nil {
		visit(root)
	}
	return idx
}

// project lists the rows a user sees: the root and every descendant whose
// ancestors are all expanded.
func project(root *entry) []row {
	if root == nil {
		return nil
	}
	rows := []row{{e: root}}
	var visit func(e *entry, depth int)
	visit = func(e *entry, depth int) {
		if !e.expanded {
			return
		}
		for _, c := range e.children {
			rows = append(rows, row{e: c, depth: depth})
			if c.isFolder {
				visit(c, depth+1)
			}
		}
	}
	visit(root, 1)
	return rows
}

func (e *entry) contains(other *entry) bool {
	for ; other != nil; other = other.parent {
		if other == e {
			return true
		}
	}
	return false
}

func (e *entry) detach() {
	if e.parent == nil {
		return
	}
	siblings := e.parent.children
	for i, c := range siblings {
		if c == e {
			e.parent.children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// relocate moves e next to or into dest. It refuses to move the root or to
// move a folder below itself.
func relocate(e, dest *entry, mode tree.HitMode) bool {
	if e == nil || dest == nil || e.parent == nil || e.contains(dest) {
		return false
	}
	if mode == tree.Over {
		if !dest.isFolder {
			return false
		}
		e.detach()
		e.parent = dest
		dest.children = append(dest.children, e)
		return true
	}
	if dest.parent == nil {
		return false
	}

	e.detach()
	parent := dest.parent
	at := len(parent.children)
	for i, c := range parent.children {
		if c == dest {
			at = i
			if mode == tree.After {
				at++
			}
			break
		}
	}
	parent.children = append(parent.children, nil)
	copy(parent.children[at+1:], parent.children[at:])
	parent.children[at] = e
	e.parent = parent
	return true
}

// pickMode maps a vertical position inside a row (0 at the top, 1 at the
// bottom) to one of the allowed hit modes. Folders get a quarter of the row
// for each sibling mode and the middle for Over.
func pickMode(frac float32, allowed tree.HitModes) (tree.HitMode, bool) {
	hasBefore, hasAfter, hasOver := allowed.Has(tree.Before), allowed.Has(tree.After), allowed.Has(tree.Over)
	switch {
	case !hasBefore && !hasAfter && !hasOver:
		return 0, false
	case hasOver:
		if frac < 0.25 && hasBefore {
			return tree.Before, true
		}
		if frac > 0.75 && hasAfter {
			return tree.After, true
		}
		return tree.Over, true
	case hasBefore && (frac < 0.5 || !hasAfter):
		return tree.Before, true
	default:
		return tree.After, true
	}
}

// hitTest finds the row under y (in list pixels, 0 at the first row) and
// the drop mode there. policy supplies the allowed modes per key.
func hitTest(rows []row, rowHeight int, y float32, policy func(key string) tree.HitModes) (*entry, tree.HitMode, bool) {
	if rowHeight <= 0 || y < 0 {
		return nil, 0, false
	}
	i := int(y) / rowHeight
	if i >= len(rows) {
		return nil, 0, false
	}
	target := rows[i].e
	allowed := tree.AllHitModes
	if policy != nil {
		allowed = policy(target.key)
	}
	frac := (y - float32(i*rowHeight)) / float32(rowHeight)
	mode, ok := pickMode(frac, allowed)
	if !ok {
		return nil, 0, false
	}
	return target, mode, true
}
