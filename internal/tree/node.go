// Package tree holds the data model shared by the panel, the drivers and the
// widget: file/folder nodes, their immutable item view and drop hit modes.
package tree

import (
	"sort"
	"strings"
	"time"

	"github.com/justyntemme/filespanel/internal/pathutil"
)

// Node is one file or folder in a snapshot.
//
// Key is unique within a snapshot and stable across reloads. Path is the last
// backend-confirmed location; only the panel rewrites it, and only after the
// backend acknowledged a move.
type Node struct {
	Key      string
	Path     string
	Name     string
	IsFolder bool
	Expanded bool
	Size     int64
	ModTime  time.Time
	Children []*Node
}

// Item is an immutable value view of a node, safe to hand to observers.
type Item struct {
	Key      string
	Path     string
	Name     string
	IsFolder bool
}

// Item returns the value view of n.
func (n *Node) Item() Item {
	return Item{Key: n.Key, Path: n.Path, Name: n.Name, IsFolder: n.IsFolder}
}

// IsHidden reports whether the node is a dot-entry.
func (n *Node) IsHidden() bool {
	return strings.HasPrefix(n.Name, ".")
}

// NewFolder builds a folder node keyed by its canonical path.
func NewFolder(p string, children ...*Node) *Node {
	p = pathutil.Canonical(p)
	return &Node{Key: p, Path: p, Name: pathutil.Base(p), IsFolder: true, Children: children}
}

// NewFile builds a file node keyed by its canonical path.
func NewFile(p string) *Node {
	p = pathutil.Canonical(p)
	return &Node{Key: p, Path: p, Name: pathutil.Base(p)}
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Find returns the node with the given key, or nil.
func Find(root *Node, key string) *Node {
	var found *Node
	Walk(root, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.Key == key {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindByPath returns the node at the given path, or nil.
func FindByPath(root *Node, p string) *Node {
	p = pathutil.Canonical(p)
	var found *Node
	Walk(root, func(n *Node, _ int) bool {
		if found != nil || !pathutil.IsWithin(p, n.Path) {
			return false
		}
		if pathutil.Canonical(n.Path) == p {
			found = n
			return false
		}
		return true
	})
	return found
}

// Index maps every key under root to its node.
func Index(root *Node) map[string]*Node {
	idx := make(map[string]*Node)
	Walk(root, func(n *Node, _ int) bool {
		idx[n.Key] = n
		return true
	})
	return idx
}

// Parent returns the parent of the node with the given key, or nil for the
// root and unknown keys.
func Parent(root *Node, key string) *Node {
	var parent *Node
	Walk(root, func(n *Node, _ int) bool {
		if parent != nil {
			return false
		}
		for _, c := range n.Children {
			if c.Key == key {
				parent = n
				return false
			}
		}
		return true
	})
	return parent
}

// Contains reports whether node is ancestor or one of its descendants.
func Contains(ancestor, node *Node) bool {
	if ancestor == nil || node == nil {
		return false
	}
	found := false
	Walk(ancestor, func(n *Node, _ int) bool {
		if n == node {
			found = true
		}
		return !found
	})
	return found
}

// Count returns the number of nodes under and including root.
func Count(root *Node) int {
	total := 0
	Walk(root, func(*Node, int) bool {
		total++
		return true
	})
	return total
}

// Detach removes the node with the given key from its parent and returns it.
func Detach(root *Node, key string) *Node {
	parent := Parent(root, key)
	if parent == nil {
		return nil
	}
	for i, c := range parent.Children {
		if c.Key == key {
			parent.Children = append(parent.Children[:i:i], parent.Children[i+1:]...)
			return c
		}
	}
	return nil
}

// Append adds child as the last child of parent.
func Append(parent, child *Node) {
	parent.Children = append(parent.Children, child)
}

// InsertBefore places n among the siblings of ref, right before it.
func InsertBefore(root, ref, n *Node) bool {
	return insertAt(root, ref, n, 0)
}

// InsertAfter places n among the siblings of ref, right after it.
func InsertAfter(root, ref, n *Node) bool {
	return insertAt(root, ref, n, 1)
}

func insertAt(root, ref, n *Node, offset int) bool {
	parent := Parent(root, ref.Key)
	if parent == nil {
		return false
	}
	for i, c := range parent.Children {
		if c == ref {
			at := i + offset
			parent.Children = append(parent.Children, nil)
			copy(parent.Children[at+1:], parent.Children[at:])
			parent.Children[at] = n
			return true
		}
	}
	return false
}

// Rebase moves n to newPath, rewriting the paths of all descendants.
// Keys are left alone.
func Rebase(n *Node, newPath string) {
	newPath = pathutil.Canonical(newPath)
	oldPath := pathutil.Canonical(n.Path)
	Walk(n, func(d *Node, _ int) bool {
		if d == n {
			d.Path = newPath
		} else {
			rel := strings.TrimPrefix(pathutil.Canonical(d.Path), oldPath)
			d.Path = pathutil.Join(newPath, rel)
		}
		return true
	})
	n.Name = pathutil.Base(newPath)
}

// SortChildren orders folders before files, then names case-insensitively.
func SortChildren(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].IsFolder != nodes[j].IsFolder {
			return nodes[i].IsFolder
		}
		return strings.ToLower(nodes[i].Name) < strings.ToLower(nodes[j].Name)
	})
}

// SortRecursive applies SortChildren to every folder under root.
func SortRecursive(root *Node) {
	Walk(root, func(n *Node, _ int) bool {
		SortChildren(n.Children)
		return true
	})
}
